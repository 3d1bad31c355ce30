package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nop struct{}

func (nop) Debugf(string, ...any) {}

func (nop) Debugw(string, map[string]any) {}

func (nop) Infof(string, ...any) {}

func (nop) Warnf(string, ...any) {}

func (nop) Errorf(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }
