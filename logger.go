package shelf

// Logger receives the catalog's lifecycle events: loads, index rebuilds,
// persist failures and lock release. Open takes one through WithLogger and
// internal/server logs requests and recovered panics with the same value.
//
// The method set is a subset of *slog.Logger, so a slog logger can be passed
// as is. Package logger wraps zap and logrus to fit.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// DiscardLogger drops every event. Open uses it when no logger is set.
type DiscardLogger struct{}

func (DiscardLogger) Error(string, ...any) {}

func (DiscardLogger) Warn(string, ...any) {}

func (DiscardLogger) Info(string, ...any) {}
