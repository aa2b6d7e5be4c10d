package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/alexhholmes/shelf"
	"github.com/alexhholmes/shelf/internal/catalog"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStats handles GET /stats
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Stats())
}

// handleInsert handles POST /books
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var b shelf.Book
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&b); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.catalog.Insert(b); err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Error("insert failed", "isbn13", b.ISBN13, "error", err)
		}
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "book inserted"})
}

// handleList handles GET /books
func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Books())
}

// handleSearch handles GET /books/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f, err := catalog.ParseFilters(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page := positiveInt(q.Get("page"), defaultPage)
	pageSize := positiveInt(q.Get("pageSize"), defaultPageSize)

	res, err := s.catalog.Search(f, page, pageSize)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if res.Results == nil {
		res.Results = []shelf.Book{}
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePrefix handles GET /books/prefix?q=
func (s *Server) handlePrefix(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalog.SearchPrefix(r.URL.Query().Get("q"))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if books == nil {
		books = []shelf.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

// handleLookup handles GET /books/lookup?titulo=&isbn13=
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	isbn13 := q.Get("isbn13")
	if isbn13 == "" {
		writeError(w, http.StatusBadRequest, "isbn13 is required")
		return
	}

	b, err := s.catalog.Get(q.Get("titulo"), isbn13)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// positiveInt parses a page parameter. Missing or unparsable values take def
// and values below 1 are raised to 1.
func positiveInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return max(1, n)
}
