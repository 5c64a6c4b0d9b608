package deviceflow

import "log/slog"

// Option configures the device flow implementation
type Option func(*flowImpl)

// WithLogger sets the logger for resolution events
func WithLogger(logger *slog.Logger) Option {
	return func(f *flowImpl) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithVerificationPath overrides the path of the page where players enter codes
func WithVerificationPath(p string) Option {
	return func(f *flowImpl) {
		if p != "" {
			f.verificationPath = p
		}
	}
}
