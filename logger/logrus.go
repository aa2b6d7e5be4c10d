package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/alexhholmes/shelf"
)

// Logrus wraps a logrus.Logger to implement shelf.Logger.
type Logrus struct {
	logger *logrus.Logger
}

// NewLogrus creates a shelf.Logger from a logrus.Logger.
func NewLogrus(logger *logrus.Logger) shelf.Logger {
	return &Logrus{logger: logger}
}

func (l *Logrus) Error(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Error(msg)
}

func (l *Logrus) Warn(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Warn(msg)
}

func (l *Logrus) Info(msg string, args ...any) {
	l.logger.WithFields(argsToFields(args)).Info(msg)
}

// argsToFields pairs up slog-style key-value arguments. Non-string keys are
// formatted with %v and a dangling value is stored under badKey.
func argsToFields(args []any) logrus.Fields {
	fields := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i == len(args)-1 {
			fields[badKey] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	return fields
}
