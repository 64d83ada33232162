package services

import "errors"

var (
	// ErrInvalidInput marks a missing or malformed field in an analysis request
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedContent marks a content type, MIME type or size the
	// analyzers do not accept
	ErrUnsupportedContent = errors.New("unsupported content")

	// ErrDetectionDisabled is returned when the client's extension config has
	// switched the requested detector off
	ErrDetectionDisabled = errors.New("detection disabled")
)

// DisabledError names the detector that the client switched off. It matches
// ErrDetectionDisabled with errors.Is.
type DisabledError struct {
	Detector string
}

func (e *DisabledError) Error() string {
	return e.Detector + " detection is disabled"
}

// Is reports whether target is ErrDetectionDisabled
func (e *DisabledError) Is(target error) bool {
	return target == ErrDetectionDisabled
}
