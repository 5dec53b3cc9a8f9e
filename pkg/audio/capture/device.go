package capture

// Options carries the processing features requested when opening a
// microphone. Drivers apply what their host audio stack supports and
// ignore the rest.
type Options struct {
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// Device opens microphone streams. Implementations are selected by the
// application at construction time; there is no global registry.
//
// Open must release any partially acquired resources before returning an
// error, so a failed Open never leaks a device handle.
type Device interface {
	Open(opts Options) (Stream, error)
}

// Stream is an open microphone capture stream delivering normalized
// float32 samples in [-1, 1] at the device's native rate.
type Stream interface {
	// SampleRate returns the native capture rate in Hz.
	SampleRate() int

	// Read blocks until at least one captured sample is available and
	// copies samples into p. It returns the number of samples read and
	// any error; after Close it returns a non-nil error.
	Read(p []float32) (int, error)

	// Close stops capture and releases the device.
	Close() error
}
