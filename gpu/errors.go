package gpu

import "github.com/cockroachdb/errors"

// Error kinds. Errors returned by this package and by device backends are
// marked with one or more of these, so callers can test them with
// errors.Is regardless of how much context has been wrapped around them.
var (
	// ErrPlatformInit marks window, device or surface-claim failures.
	ErrPlatformInit = errors.New("gpu: platform initialization failed")

	// ErrResourceCreation marks shader, buffer or pipeline allocation failures.
	ErrResourceCreation = errors.New("gpu: resource creation failed")

	// ErrPipelineCreation marks a pipeline the backend rejected. Errors
	// marked with it are also marked ErrResourceCreation.
	ErrPipelineCreation = errors.New("gpu: pipeline creation failed")

	// ErrSubmission marks command buffer acquisition or submission failures.
	ErrSubmission = errors.New("gpu: command submission failed")

	// ErrIO marks unreadable shader files.
	ErrIO = errors.New("gpu: shader read failed")
)

func resourceError(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrResourceCreation)
}

func submissionError(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrSubmission)
}

func pipelineError(err error, msg string) error {
	return errors.Mark(errors.Mark(errors.Wrap(err, msg), ErrPipelineCreation), ErrResourceCreation)
}
