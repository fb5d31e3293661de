package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"movcompress/internal/fileutil"
	"movcompress/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Warning marks a passed check whose Detail deserves attention.
	Warning bool
	Detail  string
}

// RunAll checks that the output can be written next to input.
func RunAll(ctx context.Context, input, output string) []Result {
	dir := filepath.Dir(output)
	results := []Result{CheckDirectoryAccess("Output directory", dir)}
	if !results[0].Passed {
		return results
	}
	size, err := fileutil.RegularFileSize(input)
	if err != nil {
		size = 0
	}
	return append(results, CheckFreeSpace(ctx, "Free space", dir, size))
}

// Err converts failed results into a validation error.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "preflight", "", strings.Join(failed, "; "), nil)
}

// Warnings returns passed results flagged as warnings.
func Warnings(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Passed && r.Warning {
			out = append(out, r)
		}
	}
	return out
}
