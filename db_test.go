package shelf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexhholmes/shelf/internal/storage"
)

// fakeBook returns a book with random text fields and a unique ISBN-13
// derived from i.
func fakeBook(i int) Book {
	return Book{
		ID:          fmt.Sprintf("978%010d-%d", i, i),
		Title:       strings.TrimSuffix(faker.Sentence(), "."),
		Author:      faker.Name(),
		ISBN13:      fmt.Sprintf("978%010d", i),
		Year:        1900 + i%120,
		Pages:       100 + i,
		Language:    "português",
		Publisher:   faker.Word(),
		Genre:       faker.Word(),
		Description: faker.Paragraph(),
		Rating:      float64(i%50) / 10,
	}
}

// setup opens a database in a fresh temporary directory
func setup(t *testing.T, opts ...Option) (*DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir, append([]Option{WithSyncOff()}, opts...)...)
	require.NoError(t, err, "Failed to open DB")
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, dir
}

func reopen(t *testing.T, db *DB, opts ...Option) *DB {
	t.Helper()
	require.NoError(t, db.Close())
	db2, err := Open(db.Dir(), append([]Option{WithSyncOff()}, opts...)...)
	require.NoError(t, err, "Failed to reopen DB")
	t.Cleanup(func() {
		_ = db2.Close()
	})
	return db2
}

func sortedKeys(books []Book) []string {
	keys := make([]string, len(books))
	for i, b := range books {
		keys[i] = b.Key()
	}
	sort.Strings(keys)
	return keys
}

func TestOpenEmpty(t *testing.T) {
	t.Parallel()

	db, dir := setup(t)
	assert.Zero(t, db.Len())
	assert.Empty(t, db.Books())

	st := db.Stats()
	assert.Equal(t, 0, st.Books)
	assert.Equal(t, 1, st.Height)
	assert.Equal(t, 3, st.Degree)

	// Opening an empty directory writes an empty index.
	for _, name := range []string{storage.BooksFile, storage.TreeFile, storage.TreeFile + storage.ChecksumExt} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	page, err := db.Search(Filters{}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.False(t, page.HasNextPage)
}

func TestOpenRejectsBadDegree(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir(), WithDegree(1))
	assert.ErrorIs(t, err, ErrInvalidDegree)
}

func TestInsertGetReopen(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)

	books := make([]Book, 40)
	for i := range books {
		books[i] = fakeBook(i)
		require.NoError(t, db.Insert(books[i]))
	}
	assert.Equal(t, len(books), db.Len())
	assert.Equal(t, books, db.Books(), "insertion order is kept")

	for _, b := range books {
		got, err := db.Get(b.Title, b.ISBN13)
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}

	_, err := db.Get(books[0].Title, "0000000000000")
	assert.ErrorIs(t, err, ErrBookNotFound)

	db = reopen(t, db)
	assert.Equal(t, books, db.Books())
	for _, b := range books {
		got, err := db.Get(b.Title, b.ISBN13)
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}

	var keys []string
	require.NoError(t, db.Ascend(func(b Book) bool {
		keys = append(keys, b.Key())
		return true
	}))
	assert.Equal(t, sortedKeys(books), keys)
}

func TestInsertRejectsDuplicateISBN(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)

	b := fakeBook(1)
	require.NoError(t, db.Insert(b))

	again := fakeBook(2)
	again.ISBN13 = b.ISBN13
	err := db.Insert(again)
	assert.ErrorIs(t, err, ErrBookExists)
	assert.Equal(t, 1, db.Len())

	got, err := db.Get(b.Title, b.ISBN13)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestInsertRejectsInvalidBook(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)

	b := fakeBook(1)
	b.ISBN13 = ""
	assert.ErrorIs(t, db.Insert(b), ErrMissingISBN)

	b = fakeBook(2)
	b.Title = "left|right"
	assert.ErrorIs(t, db.Insert(b), ErrInvalidKey)

	assert.Zero(t, db.Len())
}

func TestImport(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)
	require.NoError(t, db.Insert(fakeBook(0)))

	batch := []Book{fakeBook(0), fakeBook(1), fakeBook(2), fakeBook(2), {Title: "no isbn"}}
	stats, err := db.Import(batch)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Inserted: 2, Duplicates: 2, Invalid: 1}, stats)
	assert.Equal(t, 3, db.Len())

	db = reopen(t, db)
	assert.Equal(t, 3, db.Len())
}

func TestSearchPaging(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)

	books := make([]Book, 25)
	for i := range books {
		books[i] = fakeBook(i)
	}
	_, err := db.Import(books)
	require.NoError(t, err)
	want := sortedKeys(books)

	tests := []struct {
		page, pageSize int
		from, to       int
		hasNext        bool
	}{
		{page: 1, pageSize: 10, from: 0, to: 10, hasNext: true},
		{page: 2, pageSize: 10, from: 10, to: 20, hasNext: true},
		{page: 3, pageSize: 10, from: 20, to: 25, hasNext: false},
		{page: 4, pageSize: 10, from: 25, to: 25, hasNext: false},
		{page: 1, pageSize: 25, from: 0, to: 25, hasNext: false},
		{page: 5, pageSize: 5, from: 20, to: 25, hasNext: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page_%d_size_%d", tt.page, tt.pageSize), func(t *testing.T) {
			p, err := db.Search(Filters{}, tt.page, tt.pageSize)
			require.NoError(t, err)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.pageSize, p.PageSize)
			assert.Equal(t, tt.hasNext, p.HasNextPage)
			assert.Equal(t, want[tt.from:tt.to], sortedKeys(p.Results))
		})
	}

	_, err = db.Search(Filters{}, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = db.Search(Filters{}, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestSearchFilters(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)

	old := fakeBook(1)
	old.Author = "Machado de Assis"
	old.Year = 1899
	recent := fakeBook(2)
	recent.Author = "Machado de Assis"
	recent.Year = 1990
	other := fakeBook(3)
	other.Author = "Clarice Lispector"
	other.Year = 1977
	_, err := db.Import([]Book{old, recent, other})
	require.NoError(t, err)

	p, err := db.Search(Filters{Author: "machado"}, 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Book{old, recent}, p.Results)

	maxYear := 1950.0
	p, err = db.Search(Filters{Author: "machado", Ranges: map[string]Range{"ano": {Max: &maxYear}}}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []Book{old}, p.Results)

	p, err = db.Search(Filters{ISBN13: other.ISBN13}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []Book{other}, p.Results)
}

func TestSearchCacheInvalidatedByInsert(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)
	require.NoError(t, db.Insert(fakeBook(1)))

	p1, err := db.Search(Filters{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, p1.Results, 1)

	// Mutating a returned page must not leak into the cache.
	p1.Results[0].Title = "mutated"

	p2, err := db.Search(Filters{}, 1, 10)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", p2.Results[0].Title)
	st := db.Stats()
	assert.Equal(t, uint64(1), st.CacheHits)
	assert.Equal(t, 1, st.CacheEntries)

	require.NoError(t, db.Insert(fakeBook(2)))
	assert.Zero(t, db.Stats().CacheEntries)

	p3, err := db.Search(Filters{}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, p3.Results, 2)
}

func TestSearchCacheDisabled(t *testing.T) {
	t.Parallel()

	db, _ := setup(t, WithCacheEntries(0))
	require.NoError(t, db.Insert(fakeBook(1)))

	for range 3 {
		p, err := db.Search(Filters{}, 1, 10)
		require.NoError(t, err)
		assert.Len(t, p.Results, 1)
	}
	assert.Zero(t, db.Stats().CacheHits)
}

func TestSearchPrefix(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)

	titles := []string{"Dom Casmurro", "Dom Quixote", "dom menor", "Memórias Póstumas", "Do Contrato Social"}
	for i, title := range titles {
		b := fakeBook(i)
		b.Title = title
		require.NoError(t, db.Insert(b))
	}

	got, err := db.SearchPrefix("Dom")
	require.NoError(t, err)
	var gotTitles []string
	for _, b := range got {
		gotTitles = append(gotTitles, b.Title)
	}
	assert.Equal(t, []string{"Dom Casmurro", "Dom Quixote"}, gotTitles)

	all, err := db.SearchPrefix("")
	require.NoError(t, err)
	assert.Len(t, all, len(titles))
}

func TestIndexFileShape(t *testing.T) {
	t.Parallel()

	db, dir := setup(t, WithDegree(2))
	for i := range 4 {
		b := fakeBook(i)
		b.Title = string(rune('a' + i))
		require.NoError(t, db.Insert(b))
	}

	data, err := os.ReadFile(filepath.Join(dir, storage.TreeFile))
	require.NoError(t, err)

	var raw struct {
		T    int `json:"t"`
		Root struct {
			Keys     []string          `json:"keys"`
			Values   []json.RawMessage `json:"values"`
			Leaf     bool              `json:"leaf"`
			Children []json.RawMessage `json:"children"`
		} `json:"root"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 2, raw.T)
	assert.Equal(t, []string{"b|9780000000001"}, raw.Root.Keys)
	assert.False(t, raw.Root.Leaf)
	assert.Len(t, raw.Root.Values, 1)
	assert.Len(t, raw.Root.Children, 2)

	snap, err := db.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.T)
	assert.Equal(t, raw.Root.Keys, snap.Root.Keys)
}

func TestCorruptIndexIsRebuilt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		corrupt func(t *testing.T, dir string)
	}{
		{
			name: "garbage",
			corrupt: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, storage.TreeFile), []byte("{oops"), 0o644))
			},
		},
		{
			name: "checksum_mismatch",
			corrupt: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, storage.TreeFile),
					[]byte(`{"t":3,"root":{"keys":[],"values":[],"leaf":true,"children":[]}}`), 0o644))
			},
		},
		{
			name: "count_mismatch_without_checksum",
			corrupt: func(t *testing.T, dir string) {
				require.NoError(t, storage.Remove(filepath.Join(dir, storage.TreeFile)))
				require.NoError(t, os.WriteFile(filepath.Join(dir, storage.TreeFile),
					[]byte(`{"t":3,"root":{"keys":[],"values":[],"leaf":true,"children":[]}}`), 0o644))
			},
		},
		{
			name: "invariant_violation",
			corrupt: func(t *testing.T, dir string) {
				require.NoError(t, storage.Remove(filepath.Join(dir, storage.TreeFile)))
				require.NoError(t, os.WriteFile(filepath.Join(dir, storage.TreeFile),
					[]byte(`{"t":3,"root":{"keys":["z","a"],"values":[{},{}],"leaf":true,"children":[]}}`), 0o644))
			},
		},
		{
			name: "missing",
			corrupt: func(t *testing.T, dir string) {
				require.NoError(t, storage.Remove(filepath.Join(dir, storage.TreeFile)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, dir := setup(t)
			books := make([]Book, 12)
			for i := range books {
				books[i] = fakeBook(i)
			}
			_, err := db.Import(books)
			require.NoError(t, err)
			require.NoError(t, db.Close())

			tt.corrupt(t, dir)

			db2, err := Open(dir, WithSyncOff())
			require.NoError(t, err)
			defer db2.Close()

			assert.Equal(t, len(books), db2.Len())
			for _, b := range books {
				got, err := db2.Get(b.Title, b.ISBN13)
				require.NoError(t, err)
				assert.Equal(t, b, got)
			}

			// The rebuilt index was saved with a fresh checksum.
			assert.NoError(t, storage.VerifyChecksum(filepath.Join(dir, storage.TreeFile)))
		})
	}
}

func TestOpenFailsOnCorruptBooks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.BooksFile), []byte("[{"), 0o644))

	_, err := Open(dir, WithSyncOff())
	assert.Error(t, err)

	// The lock was released on failure.
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.BooksFile), []byte("[]"), 0o644))
	db, err := Open(dir, WithSyncOff())
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpenSkipsDuplicateISBNsInBooksFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, b := fakeBook(1), fakeBook(1)
	b.Title = a.Title + " (segunda edição)"
	_, err := storage.WriteJSON(filepath.Join(dir, storage.BooksFile), []Book{a, b}, false)
	require.NoError(t, err)

	db, err := Open(dir, WithSyncOff())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, []Book{a}, db.Books())
}

func TestDegreeOfLoadedIndexIsKept(t *testing.T) {
	t.Parallel()

	db, _ := setup(t, WithDegree(4))
	require.NoError(t, db.Insert(fakeBook(1)))

	db = reopen(t, db, WithDegree(7))
	assert.Equal(t, 4, db.Stats().Degree)
}

func TestLockConflict(t *testing.T) {
	t.Parallel()

	db, dir := setup(t)

	_, err := Open(dir)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, db.Close())
	db2, err := Open(dir, WithSyncOff())
	require.NoError(t, err)
	require.NoError(t, db2.Close())
}

func TestClosed(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "closing twice is a no-op")

	assert.ErrorIs(t, db.Insert(fakeBook(1)), ErrDatabaseClosed)
	_, err := db.Import([]Book{fakeBook(1)})
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	_, err = db.Get("x", "y")
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	_, err = db.Search(Filters{}, 1, 1)
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	_, err = db.SearchPrefix("x")
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	assert.ErrorIs(t, db.Ascend(func(Book) bool { return true }), ErrDatabaseClosed)
	_, err = db.Snapshot()
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	assert.ErrorIs(t, db.Backup(&bytes.Buffer{}), ErrDatabaseClosed)
}

func TestBackupRestore(t *testing.T) {
	t.Parallel()

	db, _ := setup(t)
	books := make([]Book, 30)
	for i := range books {
		books[i] = fakeBook(i)
	}
	_, err := db.Import(books)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, db.Backup(&buf))

	// Restore into a directory that already holds other books.
	target, _ := setup(t)
	require.NoError(t, target.Insert(fakeBook(999)))
	targetDir := target.Dir()
	require.NoError(t, target.Close())

	restored, stats, err := Restore(targetDir, bytes.NewReader(buf.Bytes()), WithSyncOff(), WithDegree(5))
	require.NoError(t, err)
	defer restored.Close()

	assert.Equal(t, ImportStats{Inserted: len(books)}, stats)
	assert.Equal(t, books, restored.Books())
	assert.Equal(t, 5, restored.Stats().Degree)
	_, err = restored.Get(fakeBook(999).Title, fakeBook(999).ISBN13)
	assert.ErrorIs(t, err, ErrBookNotFound)

	restored = reopen(t, restored)
	assert.Equal(t, books, restored.Books())
}

func TestRestoreRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, _, err := Restore(t.TempDir(), strings.NewReader("definitely not a backup"), WithSyncOff())
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	t.Parallel()

	db, _ := setup(t, WithCacheEntries(8))

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 10 {
				assert.NoError(t, db.Insert(fakeBook(w*100+i)))
			}
		}()
	}
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				_, err := db.Search(Filters{}, 1, 5)
				assert.NoError(t, err)
				_ = db.Stats()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 40, db.Len())
}

// blockBooksFile replaces books.json with a non-empty directory so the
// rename that saves it fails. The returned func undoes it.
func blockBooksFile(t *testing.T, dir string) func() {
	t.Helper()
	path := filepath.Join(dir, storage.BooksFile)
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0o755))
	return func() {
		require.NoError(t, os.RemoveAll(path))
	}
}

func TestInsertRollsBackWhenPersistFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rename semantics differ")
	}
	t.Parallel()

	db, dir := setup(t)
	kept := fakeBook(1)
	require.NoError(t, db.Insert(kept))

	// Cache a page so a stale entry would show up below.
	_, err := db.Search(Filters{}, 1, 10)
	require.NoError(t, err)

	unblock := blockBooksFile(t, dir)
	b := fakeBook(2)
	require.Error(t, db.Insert(b))

	_, err = db.Get(b.Title, b.ISBN13)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.Equal(t, []Book{kept}, db.Books())
	p, err := db.Search(Filters{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []Book{kept}, p.Results)

	unblock()
	require.NoError(t, db.Insert(b), "retry after a failed save")

	db = reopen(t, db)
	assert.Equal(t, []Book{kept, b}, db.Books())
	got, err := db.Get(b.Title, b.ISBN13)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestImportRollsBackWhenPersistFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rename semantics differ")
	}
	t.Parallel()

	db, dir := setup(t, WithDegree(2))
	kept := fakeBook(0)
	require.NoError(t, db.Insert(kept))

	batch := make([]Book, 10)
	for i := range batch {
		batch[i] = fakeBook(i + 1)
	}

	unblock := blockBooksFile(t, dir)
	stats, err := db.Import(batch)
	require.Error(t, err)
	assert.Zero(t, stats)
	assert.Equal(t, 1, db.Len())
	assert.Equal(t, 2, db.Stats().Degree)
	for _, b := range batch {
		_, err := db.Get(b.Title, b.ISBN13)
		assert.ErrorIs(t, err, ErrBookNotFound)
	}

	unblock()
	stats, err = db.Import(batch)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Inserted: len(batch)}, stats)
	assert.Equal(t, len(batch)+1, db.Len())
}
