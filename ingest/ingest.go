package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNotFound is returned when the document file does not exist
	ErrNotFound = errors.New("document not found")
	// ErrTooLarge is returned when a document exceeds the read limit
	ErrTooLarge = errors.New("document too large")
)

// Format identifies how a document's bytes are decoded
type Format string

const (
	FormatText Format = "text"
	FormatDocx Format = "docx"
	FormatDoc  Format = "doc"
)

// FormatOf picks the decoder for a file name from its extension
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return FormatDocx
	case ".doc":
		return FormatDoc
	default:
		return FormatText
	}
}

// ReadFile reads and decodes the document at path. maxBytes bounds the file
// size (0 = no limit).
func ReadFile(path string, maxBytes int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", fmt.Errorf("%s is %d bytes: %w", path, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(path, data), nil
}

// Decode turns document bytes into text. Structured formats fall back to
// plain text when nothing can be extracted. The result is valid NFC UTF-8.
func Decode(name string, data []byte) string {
	var text string
	switch FormatOf(name) {
	case FormatDocx:
		text = extractDocx(data)
	case FormatDoc:
		text = extractDoc(data)
	}
	if text == "" {
		text = decodePlain(data)
	}
	return norm.NFC.String(text)
}

func decodePlain(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}
