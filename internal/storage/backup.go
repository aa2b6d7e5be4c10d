package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// backupMagic starts every backup stream. The trailing byte is the format
// version.
var backupMagic = []byte("SHELFBK\x01")

var ErrInvalidBackup = errors.New("storage: not a shelf backup")

// WriteBackup writes records as a snappy-framed JSON array preceded by the
// backup magic.
func WriteBackup(w io.Writer, records any) error {
	if _, err := w.Write(backupMagic); err != nil {
		return err
	}
	sw := snappy.NewBufferedWriter(w)
	if err := json.NewEncoder(sw).Encode(records); err != nil {
		_ = sw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	return sw.Close()
}

// ReadBackup decodes a stream written by WriteBackup into records.
func ReadBackup(r io.Reader, records any) error {
	br := bufio.NewReader(r)
	magic := make([]byte, len(backupMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if !bytes.Equal(magic, backupMagic) {
		return ErrInvalidBackup
	}
	if err := json.NewDecoder(snappy.NewReader(br)).Decode(records); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return nil
}
