package parser

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is an ordered header list plus a row iterator. Next returns values
// aligned to Headers and io.EOF once every row has been consumed.
type Table interface {
	Headers() []string
	Next() ([]string, error)
}

// Reader turns a raw sample stream into a Table.
type Reader interface {
	// Format is the short name reported back to callers, e.g. "csv".
	Format() string
	CanParse(filename string) bool
	Open(r io.Reader) (Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ForFile selects a reader based on the filename. Anything no registered
// reader claims is treated as CSV.
func ForFile(filename string) Reader {
	for _, r := range registry {
		if r.CanParse(filename) {
			return r
		}
	}
	return csvReader{}
}

func init() {
	Register(jsonReader{})
}

var (
	// ErrNoRecords indicates the sample has no usable header or rows.
	ErrNoRecords = errors.New("no records detected")
	// ErrMalformed indicates the sample could not be decoded in its declared format.
	ErrMalformed = errors.New("malformed sample")
)

// decodeText strips a UTF-8 BOM, transcodes BOM-marked UTF-16 and replaces
// invalid UTF-8 sequences with U+FFFD.
func decodeText(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

func hasSuffixFold(name, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(name), suffix)
}
