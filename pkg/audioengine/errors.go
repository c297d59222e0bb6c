package audioengine

import (
	"errors"
	"fmt"
)

var (
	// ErrFFTSize is returned by NewEngine and NewSpectrumTap when the FFT size
	// is not a power of two.
	ErrFFTSize = errors.New("audioengine: fft size must be a power of two (>= 2)")

	// ErrBarCount is returned when the configured bar count is below one.
	ErrBarCount = errors.New("audioengine: bar count must be positive")

	ErrNoOpener = errors.New("audioengine: source opener required")
	ErrNoSink   = errors.New("audioengine: output sink required")
)

// SourceError reports a decode handle that could not be opened.
type SourceError struct {
	URL string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("audioengine: open %q: %v", e.URL, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// FaultError wraps a failure raised inside the audio pull path.
type FaultError struct {
	Stage string
	Err   error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("audioengine: %s fault: %v", e.Stage, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }
