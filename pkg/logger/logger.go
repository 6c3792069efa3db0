package logger

// Level is the minimum severity a logger emits
type Level int8

const (
	Disabled   Level = -1   // Disabled is used for disabled logging.
	DebugLevel Level = iota // DebugLevel is used for bar level decisions.
	InfoLevel               // InfoLevel is used for state transitions and trades.
	WarnLevel               // WarnLevel is used for skipped bars and ignored signals.
	ErrorLevel              // ErrorLevel is used for failed runs.
)

// Logger is the logging surface used across the engine
type Logger interface {
	WithField(key string, value any) Logger  // WithField returns a logger with the given key-value pair.
	WithFields(fields map[string]any) Logger // WithFields returns a logger with the given fields.
	WithError(err error) Logger              // WithError returns a logger with the given error.

	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	SetLevel(level Level)
	GetLevel() Level
}

// Nop is a logger that discards everything
type Nop struct{}

// NewNop returns a logger that discards all entries
func NewNop() Logger { return Nop{} }

func (n Nop) WithField(string, any) Logger { return n }
func (n Nop) WithFields(map[string]any) Logger { return n }
func (n Nop) WithError(error) Logger { return n }
func (Nop) Debug(...any) {}
func (Nop) Info(...any) {}
func (Nop) Warn(...any) {}
func (Nop) Error(...any) {}
func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any) {}
func (Nop) Warnf(string, ...any) {}
func (Nop) Errorf(string, ...any) {}
func (Nop) SetLevel(Level) {}
func (Nop) GetLevel() Level { return Disabled }
