package core

// Logger logs messages at the usual levels. Implementations may inspect args
// for well-known types (an error to report, the acting user) and ship them to
// an external error tracker.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
