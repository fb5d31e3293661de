package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"
)

// diskUsage is swapped in tests.
var diskUsage = disk.UsageWithContext

// CheckDirectoryAccess verifies that the directory exists and new files can
// be created in it.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (write ok)", path)}
}

// CheckFreeSpace compares the free space on the filesystem holding dir with
// need. Running short only produces a warning because the compressed output
// is normally much smaller than the input.
func CheckFreeSpace(ctx context.Context, name, dir string, need int64) Result {
	usage, err := diskUsage(ctx, dir)
	if err != nil {
		return Result{Name: name, Passed: true, Warning: true, Detail: fmt.Sprintf("%s (free space unknown: %v)", dir, err)}
	}
	free := humanize.Bytes(usage.Free)
	if need > 0 && usage.Free < uint64(need) {
		return Result{
			Name:    name,
			Passed:  true,
			Warning: true,
			Detail:  fmt.Sprintf("%s free, input is %s", free, humanize.Bytes(uint64(need))),
		}
	}
	return Result{Name: name, Passed: true, Detail: free + " free"}
}
