package shelf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/alexhholmes/shelf/internal/btree"
	"github.com/alexhholmes/shelf/internal/cache"
	"github.com/alexhholmes/shelf/internal/catalog"
	"github.com/alexhholmes/shelf/internal/storage"
)

type (
	Book       = catalog.Book
	Filters    = catalog.Filters
	Range      = catalog.Range
	SerialTree = btree.SerialTree[Book]
	SerialNode = btree.SerialNode[Book]
)

// SearchPage is one page of a filtered search in key order.
type SearchPage struct {
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
	Results     []Book `json:"results"`
	HasNextPage bool   `json:"hasNextPage"`
}

// ImportStats summarizes a bulk import.
type ImportStats struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
}

// Stats describes the catalog and its index.
type Stats struct {
	Books        int    `json:"books"`
	Height       int    `json:"height"`
	Degree       int    `json:"degree"`
	CacheEntries int    `json:"cacheEntries"`
	CacheHits    uint64 `json:"cacheHits"`
	CacheMisses  uint64 `json:"cacheMisses"`
}

var errNoIndex = errors.New("index file not found")

// DB is a book catalog stored in a data directory and indexed in memory by
// title and ISBN-13. Reads run concurrently; writes are exclusive and rewrite
// both files before returning.
type DB struct {
	mu     sync.RWMutex
	dir    string
	opts   Options
	log    Logger
	lock   *storage.Lock
	closed bool

	tree  *btree.Tree[Book]
	books []Book              // insertion order, as in books.json
	isbns map[string]struct{} // ISBN-13s present in the catalog
	pages *cache.Cache[SearchPage]
}

// Open loads the catalog in dir, creating the directory if needed. The
// persisted index is used when it passes its checksum and validation and
// matches books.json; otherwise it is rebuilt from books.json and saved.
func Open(dir string, options ...Option) (*DB, error) {
	// Apply options
	opts := DefaultOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if opts.degree < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDegree, opts.degree)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	lock, err := storage.Acquire(dir)
	if err != nil {
		return nil, err
	}

	pages, err := cache.New[SearchPage](opts.cacheEntries)
	if err != nil {
		_ = lock.Release()
		return nil, err
	}

	db := &DB{
		dir:   dir,
		opts:  opts,
		log:   opts.logger,
		lock:  lock,
		pages: pages,
	}

	if err := db.load(); err != nil {
		_ = lock.Release()
		return nil, err
	}
	return db, nil
}

func (db *DB) booksPath() string { return filepath.Join(db.dir, storage.BooksFile) }
func (db *DB) treePath() string  { return filepath.Join(db.dir, storage.TreeFile) }

// load reads books.json and the index. Only an unreadable books.json is
// fatal; a bad index is rebuilt.
func (db *DB) load() error {
	var books []Book
	if _, err := storage.ReadJSON(db.booksPath(), &books); err != nil {
		return err
	}

	db.books = make([]Book, 0, len(books))
	db.isbns = make(map[string]struct{}, len(books))
	for _, b := range books {
		if _, dup := db.isbns[b.ISBN13]; dup {
			db.log.Warn("skipping duplicate ISBN in books file", "isbn13", b.ISBN13, "title", b.Title)
			continue
		}
		db.isbns[b.ISBN13] = struct{}{}
		db.books = append(db.books, b)
	}

	tree, err := db.loadIndex()
	switch {
	case err == nil:
		if tree.Degree() != db.opts.degree {
			db.log.Info("index keeps its saved degree", "saved", tree.Degree(), "requested", db.opts.degree)
		}
		db.tree = tree
	case errors.Is(err, errNoIndex):
		db.log.Info("index file not found, rebuilding", "path", db.treePath(), "books", len(db.books))
		if err := db.rebuild(); err != nil {
			return err
		}
	default:
		db.log.Warn("discarding persisted index, rebuilding", "path", db.treePath(), "error", err)
		if err := db.rebuild(); err != nil {
			return err
		}
	}

	db.log.Info("catalog loaded",
		"dir", db.dir,
		"books", len(db.books),
		"height", db.tree.Height(),
		"degree", db.tree.Degree())
	return nil
}

func (db *DB) loadIndex() (*btree.Tree[Book], error) {
	var st SerialTree
	found, err := storage.ReadJSON(db.treePath(), &st)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errNoIndex
	}
	if err := storage.VerifyChecksum(db.treePath()); err != nil {
		return nil, err
	}

	tree, err := btree.Deserialize(&st)
	if err != nil {
		return nil, err
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	if tree.Len() != len(db.books) {
		return nil, fmt.Errorf("%w: index holds %d entries, books file has %d",
			ErrCorruptIndex, tree.Len(), len(db.books))
	}
	return tree, nil
}

// rebuild indexes every book from scratch and saves the result.
func (db *DB) rebuild() error {
	if err := db.buildIndex(db.opts.degree); err != nil {
		return err
	}
	return db.persist()
}

// buildIndex replaces the in-memory index with one holding db.books.
func (db *DB) buildIndex(degree int) error {
	tree, err := btree.New[Book](degree)
	if err != nil {
		return err
	}
	for _, b := range db.books {
		tree.Insert(b.Key(), b)
	}
	db.tree = tree
	return nil
}

// rollbackLocked drops every book appended after the first n. The index has
// no delete, so it is rebuilt from the remaining books.
func (db *DB) rollbackLocked(n int) {
	for _, b := range db.books[n:] {
		delete(db.isbns, b.ISBN13)
	}
	clear(db.books[n:])
	db.books = db.books[:n]
	// Same degree as before, which New already accepted
	_ = db.buildIndex(db.tree.Degree())
	db.pages.Purge()
}

// persist rewrites books.json, the index and its checksum, in that order. A
// crash between files leaves an index that fails the count or checksum check
// and is rebuilt on the next Open.
func (db *DB) persist() error {
	fsync := db.opts.syncMode == SyncEveryWrite

	if _, err := storage.WriteJSON(db.booksPath(), db.books, fsync); err != nil {
		return fmt.Errorf("write books: %w", err)
	}
	data, err := storage.WriteJSON(db.treePath(), db.tree.Serialize(), fsync)
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := storage.WriteChecksum(db.treePath(), data, fsync); err != nil {
		return fmt.Errorf("write index checksum: %w", err)
	}
	return nil
}

// Insert adds a book and persists the catalog. Books are immutable once
// stored: the index has no delete, so a second book with the same ISBN-13 is
// rejected with ErrBookExists. A book that fails to persist is dropped from
// memory as well.
func (db *DB) Insert(b Book) error {
	if err := b.Validate(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrDatabaseClosed
	}
	if _, ok := db.isbns[b.ISBN13]; ok {
		return fmt.Errorf("%w: %s", ErrBookExists, b.ISBN13)
	}

	n := len(db.books)
	db.insertLocked(b)
	db.pages.Purge()

	if err := db.persist(); err != nil {
		db.log.Error("failed to persist catalog", "isbn13", b.ISBN13, "error", err)
		db.rollbackLocked(n)
		return err
	}
	db.log.Info("book inserted", "isbn13", b.ISBN13, "title", b.Title)
	return nil
}

func (db *DB) insertLocked(b Book) {
	db.tree.Insert(b.Key(), b)
	db.books = append(db.books, b)
	db.isbns[b.ISBN13] = struct{}{}
}

// Import inserts many books and persists once. Invalid books and ISBN-13s
// already present (in the catalog or earlier in books) are skipped and
// counted. If the catalog cannot be saved, none of books is kept.
func (db *DB) Import(books []Book) (ImportStats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ImportStats{}, ErrDatabaseClosed
	}
	return db.importLocked(books)
}

func (db *DB) importLocked(books []Book) (ImportStats, error) {
	var stats ImportStats
	n := len(db.books)
	for _, b := range books {
		if err := b.Validate(); err != nil {
			db.log.Warn("skipping invalid book", "isbn13", b.ISBN13, "title", b.Title, "error", err)
			stats.Invalid++
			continue
		}
		if _, ok := db.isbns[b.ISBN13]; ok {
			stats.Duplicates++
			continue
		}
		db.insertLocked(b)
		stats.Inserted++
	}

	if stats.Inserted > 0 {
		db.pages.Purge()
		if err := db.persist(); err != nil {
			db.log.Error("failed to persist catalog", "error", err)
			db.rollbackLocked(n)
			return ImportStats{}, err
		}
	}
	db.log.Info("import finished",
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"invalid", stats.Invalid)
	return stats, nil
}

// Get returns the book with the given title and ISBN-13.
func (db *DB) Get(title, isbn13 string) (Book, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return Book{}, ErrDatabaseClosed
	}
	b, ok := db.tree.Search(catalog.Key(title, isbn13))
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return b, nil
}

// Books returns every book in insertion order.
func (db *DB) Books() []Book {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return slices.Clone(db.books)
}

// Len returns the number of books
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.books)
}

// Search returns page number page (1-based) of the books matching f, in key
// order, pageSize books per page. Results are cached until the next write.
func (db *DB) Search(f Filters, page, pageSize int) (SearchPage, error) {
	if page < 1 || pageSize < 1 {
		return SearchPage{}, fmt.Errorf("%w: page=%d pageSize=%d", ErrInvalidPage, page, pageSize)
	}
	key := cache.Key(f.Values().Encode(), strconv.Itoa(page), strconv.Itoa(pageSize))

	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return SearchPage{}, ErrDatabaseClosed
	}

	if p, ok := db.pages.Get(key); ok {
		p.Results = slices.Clone(p.Results)
		return p, nil
	}

	res, err := db.tree.Scan(f.Match, page, pageSize)
	if err != nil {
		return SearchPage{}, err
	}
	p := SearchPage{
		Page:        page,
		PageSize:    pageSize,
		Results:     res.Items,
		HasNextPage: res.HasMore,
	}
	db.pages.Put(key, p)

	p.Results = slices.Clone(p.Results)
	return p, nil
}

// SearchPrefix returns, in key order, every book whose title starts with
// prefix (case-sensitive).
func (db *DB) SearchPrefix(prefix string) ([]Book, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrDatabaseClosed
	}
	return db.tree.PrefixSearch(prefix, catalog.TitleOf), nil
}

// Ascend calls fn for each book in key order until fn returns false. fn
// must not call methods that write to db.
func (db *DB) Ascend(fn func(Book) bool) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return ErrDatabaseClosed
	}
	db.tree.Ascend(func(_ string, b Book) bool {
		return fn(b)
	})
	return nil
}

// Snapshot returns the serialized form of the index.
func (db *DB) Snapshot() (*SerialTree, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrDatabaseClosed
	}
	return db.tree.Serialize(), nil
}

// Stats returns catalog, index and cache statistics
func (db *DB) Stats() Stats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	cs := db.pages.Stats()
	return Stats{
		Books:        len(db.books),
		Height:       db.tree.Height(),
		Degree:       db.tree.Degree(),
		CacheEntries: db.pages.Len(),
		CacheHits:    cs.Hits,
		CacheMisses:  cs.Misses,
	}
}

// Dir returns the data directory
func (db *DB) Dir() string {
	return db.dir
}

// Backup writes every book to w as a compressed stream readable by Restore.
func (db *DB) Backup(w io.Writer) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return ErrDatabaseClosed
	}
	if err := storage.WriteBackup(w, db.books); err != nil {
		return err
	}
	db.log.Info("backup written", "books", len(db.books))
	return nil
}

// Restore opens the catalog in dir and replaces its contents with the books
// in a backup stream. The index is rebuilt with the configured degree.
func Restore(dir string, r io.Reader, options ...Option) (*DB, ImportStats, error) {
	var books []Book
	if err := storage.ReadBackup(r, &books); err != nil {
		return nil, ImportStats{}, err
	}

	db, err := Open(dir, options...)
	if err != nil {
		return nil, ImportStats{}, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tree, err := btree.New[Book](db.opts.degree)
	if err != nil {
		_ = db.closeLocked()
		return nil, ImportStats{}, err
	}
	db.tree = tree
	db.books = make([]Book, 0, len(books))
	db.isbns = make(map[string]struct{}, len(books))
	db.pages.Purge()

	stats, err := db.importLocked(books)
	if err == nil && stats.Inserted == 0 {
		// importLocked only persists when something was inserted
		err = db.persist()
	}
	if err != nil {
		_ = db.closeLocked()
		return nil, stats, err
	}
	return db, stats, nil
}

// Close releases the data directory. Later calls on db return
// ErrDatabaseClosed; closing twice is a no-op.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.closeLocked()
}

func (db *DB) closeLocked() error {
	if db.closed {
		return nil
	}
	db.closed = true
	db.pages.Purge()
	return db.lock.Release()
}
