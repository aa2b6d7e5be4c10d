package shelf

import (
	"errors"

	"github.com/alexhholmes/shelf/internal/btree"
	"github.com/alexhholmes/shelf/internal/catalog"
	"github.com/alexhholmes/shelf/internal/storage"
)

//goland:noinspection GoUnusedGlobalVariable
var (
	ErrBookNotFound   = errors.New("book not found")
	ErrBookExists     = errors.New("a book with this ISBN-13 already exists")
	ErrDatabaseClosed = errors.New("database is closed")

	ErrMissingISBN = catalog.ErrMissingISBN
	ErrInvalidKey  = catalog.ErrInvalidKey

	ErrInvalidDegree = btree.ErrInvalidDegree
	ErrCorruptIndex  = btree.ErrCorruptIndex
	ErrInvalidPage   = btree.ErrInvalidPage

	ErrLocked           = storage.ErrLocked
	ErrChecksumMismatch = storage.ErrChecksumMismatch
	ErrInvalidBackup    = storage.ErrInvalidBackup
)
