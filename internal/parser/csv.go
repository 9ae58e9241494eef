package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

type csvReader struct{}

func (csvReader) Format() string { return "csv" }

// CanParse accepts everything; the CSV reader is the registry fallback.
func (csvReader) CanParse(string) bool { return true }

// Open reads the header line and returns a line-oriented table. Quoted fields
// spanning multiple lines are not supported.
func (csvReader) Open(r io.Reader) (Table, error) {
	br := bufio.NewReader(decodeText(r))
	header, ok, err := readLine(br)
	if err != nil {
		return nil, eris.Wrap(err, "read csv header")
	}
	if !ok {
		return nil, ErrNoRecords
	}
	headers := SplitLine(header)
	if len(headers) == 0 {
		return nil, ErrNoRecords
	}
	return &csvTable{br: br, headers: headers}, nil
}

type csvTable struct {
	br      *bufio.Reader
	headers []string
	line    int
}

func (t *csvTable) Headers() []string { return t.headers }

func (t *csvTable) Next() ([]string, error) {
	line, ok, err := readLine(t.br)
	if err != nil {
		return nil, eris.Wrapf(err, "read csv line %d", t.line+2)
	}
	if !ok {
		return nil, io.EOF
	}
	t.line++
	values := SplitLine(line)
	row := make([]string, len(t.headers))
	copy(row, values)
	return row, nil
}

// readLine returns the next line without its terminator. "\n", "\r\n" and a
// bare "\r" all end a line. ok is false once the stream is exhausted; a final
// line without a terminator is still returned.
func readLine(br *bufio.Reader) (string, bool, error) {
	var b strings.Builder
	for {
		c, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return b.String(), b.Len() > 0, nil
		}
		if err != nil {
			return "", false, err
		}
		switch c {
		case '\n':
			return b.String(), true, nil
		case '\r':
			next, err := br.ReadByte()
			if err == nil && next != '\n' {
				_ = br.UnreadByte()
			} else if err != nil && !errors.Is(err, io.EOF) {
				return "", false, err
			}
			return b.String(), true, nil
		default:
			b.WriteByte(c)
		}
	}
}

// SplitLine splits a single CSV line. A double quote toggles quoting unless it
// is a doubled quote inside a quoted section, which yields a literal quote.
// Commas outside quotes end a field. Every field is trimmed, and a field that
// is still wrapped in quotes afterwards has them stripped.
func SplitLine(line string) []string {
	var values []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			values = append(values, cleanField(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(values, cleanField(cur.String()))
}

func cleanField(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
