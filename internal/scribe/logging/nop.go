package logging

// NopLogger discards everything. Useful as a default and in tests.
type NopLogger struct{}

// NewNop returns a logger that discards all output.
func NewNop() NopLogger { return NopLogger{} }

func (NopLogger) Info(msg string, fields ...Field)             {}
func (NopLogger) Error(msg string, err error, fields ...Field) {}
func (NopLogger) Debug(msg string, fields ...Field)            {}
func (NopLogger) Close() error                                 { return nil }
