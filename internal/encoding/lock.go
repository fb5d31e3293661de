package encoding

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"movcompress/internal/services"
)

// lockOutput takes an advisory lock keyed by the output path so two runs
// cannot write the same file at once. The lock file is left in place; only
// the lock is released.
func lockOutput(dir, output string) (*flock.Flock, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		abs = output
	}
	sum := sha256.Sum256([]byte(abs))
	path := filepath.Join(dir, "movcompress-"+hex.EncodeToString(sum[:8])+".lock")

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "lock output", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "", "lock output", fmt.Sprintf("another movcompress run is writing %s", output), nil)
	}
	return lock, nil
}
