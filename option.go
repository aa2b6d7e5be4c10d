package shelf

import "github.com/alexhholmes/shelf/internal/btree"

// SyncMode controls whether catalog writes are fsynced to disk
type SyncMode int

const (
	// SyncEveryWrite fsyncs both files and the directory on every write.
	// - A completed Insert survives power loss
	// - Each write costs a few fsyncs
	SyncEveryWrite SyncMode = iota

	// SyncOff leaves flushing to the operating system. Writes are still
	// atomic renames, so a crash loses recent writes but never leaves a
	// half-written file.
	// - Use for: Tests, bulk imports that can be rerun
	SyncOff
)

// Options configures a DB.
type Options struct {
	degree       int      // Minimum degree of the index.
	syncMode     SyncMode // Whether writes are fsynced.
	cacheEntries int      // Search pages kept in the query cache. 0 disables it.
	logger       Logger
}

// DefaultOptions returns safe default configuration.
//
// goland:noinspection GoUnusedExportedFunction
func DefaultOptions() Options {
	return Options{
		degree:       btree.DefaultDegree,
		syncMode:     SyncEveryWrite,
		cacheEntries: 256,
		logger:       DiscardLogger{},
	}
}

// Option configures database options using the functional options pattern.
type Option func(*Options)

// WithDegree sets the minimum degree of a newly built index. An index loaded
// from disk keeps the degree it was saved with.
//
//goland:noinspection GoUnusedExportedFunction
func WithDegree(t int) Option {
	return func(opts *Options) {
		opts.degree = t
	}
}

// WithSyncEveryWrite configures the database to fsync on every write.
//
//goland:noinspection GoUnusedExportedFunction
func WithSyncEveryWrite() Option {
	return func(opts *Options) {
		opts.syncMode = SyncEveryWrite
	}
}

// WithSyncOff disables fsync entirely.
// Only use for testing or bulk loads where data can be reconstructed.
//
//goland:noinspection GoUnusedExportedFunction
func WithSyncOff() Option {
	return func(opts *Options) {
		opts.syncMode = SyncOff
	}
}

// WithCacheEntries sets how many search result pages are cached. Zero turns
// the cache off.
//
//goland:noinspection GoUnusedExportedFunction
func WithCacheEntries(n int) Option {
	return func(opts *Options) {
		opts.cacheEntries = n
	}
}

// WithLogger sets the logger. *slog.Logger satisfies Logger directly.
//
//goland:noinspection GoUnusedExportedFunction
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		if l == nil {
			l = DiscardLogger{}
		}
		opts.logger = l
	}
}
