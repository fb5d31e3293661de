package encoding

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"movcompress/internal/fileutil"
	"movcompress/internal/services"
)

// DefaultOutputSuffix is appended to the input stem when no suffix is configured.
const DefaultOutputSuffix = "_compressed"

// Job is one compression request. It is built once by NewJob and passed by
// value; nothing mutates it afterwards.
type Job struct {
	InputPath  string
	OutputPath string
	Profile    Profile
	TwoPass    bool
	// Large only changes how progress is presented.
	Large bool
	RunID string
}

// OutputPath derives the output file for input: same directory, the stem
// followed by suffix, same extension. It fails when the result would be the
// input itself.
func OutputPath(input, suffix string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", services.Wrap(services.ErrValidation, "", "derive output path", "input path is empty", nil)
	}
	if suffix == "" {
		suffix = DefaultOutputSuffix
	}
	dir, base := filepath.Split(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	output := filepath.Join(dir, stem+suffix+ext)

	same, err := fileutil.SamePath(input, output)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "", "derive output path", "", err)
	}
	if same {
		return "", services.Wrap(services.ErrValidation, "", "derive output path", fmt.Sprintf("output %s would overwrite the input", output), nil)
	}
	return output, nil
}

// NewJob builds a Job for input with a fresh run ID.
func NewJob(input, suffix string, profile Profile, twoPass, large bool) (Job, error) {
	output, err := OutputPath(input, suffix)
	if err != nil {
		return Job{}, err
	}
	return Job{
		InputPath:  input,
		OutputPath: output,
		Profile:    profile,
		TwoPass:    twoPass,
		Large:      large,
		RunID:      uuid.NewString(),
	}, nil
}

// Validate rejects jobs that were assembled by hand with an empty path or an
// output that points at the input.
func (j Job) Validate() error {
	if strings.TrimSpace(j.InputPath) == "" || strings.TrimSpace(j.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, "", "validate job", "input and output paths are required", nil)
	}
	same, err := fileutil.SamePath(j.InputPath, j.OutputPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "validate job", "", err)
	}
	if same {
		return services.Wrap(services.ErrValidation, "", "validate job", "output path equals input path", nil)
	}
	if j.Profile.Name == "" {
		return services.Wrap(services.ErrValidation, "", "validate job", "profile is required", nil)
	}
	return nil
}
