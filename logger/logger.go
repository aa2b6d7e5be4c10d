// Package logger adapts common logging libraries to shelf.Logger.
//
// *slog.Logger satisfies shelf.Logger as is. The adapters here cover zap and
// logrus so a service can hand its existing logger to the catalog:
//
//	zl, _ := zap.NewProduction()
//	db, err := shelf.Open("data", shelf.WithLogger(logger.NewZap(zl)))
package logger

// badKey labels a trailing argument that has no value, as slog does.
const badKey = "!BADKEY"
