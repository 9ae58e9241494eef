package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

type jsonReader struct{}

func (jsonReader) Format() string { return "json" }

func (jsonReader) CanParse(filename string) bool { return hasSuffixFold(filename, ".json") }

// Open decodes the whole document. An array root yields one row per object
// element, an object root yields exactly one row, and any other root shape
// yields ErrNoRecords.
func (jsonReader) Open(r io.Reader) (Table, error) {
	dec := json.NewDecoder(decodeText(r))
	dec.UseNumber()
	root, err := decodeNode(dec, 0)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRecords
		}
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syn) || errors.As(err, &typ) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, errBadToken) {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, eris.Wrap(err, "read json")
	}

	var rows []*flatRow
	switch root.kind {
	case kindArray:
		for _, item := range root.items {
			if item.kind != kindObject {
				continue
			}
			if fr := flatten(item); fr.len() > 0 {
				rows = append(rows, fr)
			}
		}
	case kindObject:
		if fr := flatten(root); fr.len() > 0 {
			rows = append(rows, fr)
		}
	default:
		return nil, ErrNoRecords
	}
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}

	headers := make([]string, 0, rows[0].len())
	seen := make(map[string]struct{})
	for _, fr := range rows {
		for _, k := range fr.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			headers = append(headers, k)
		}
	}
	return &jsonTable{headers: headers, rows: rows}, nil
}

type jsonTable struct {
	headers []string
	rows    []*flatRow
	pos     int
}

func (t *jsonTable) Headers() []string { return t.headers }

func (t *jsonTable) Next() ([]string, error) {
	if t.pos >= len(t.rows) {
		return nil, io.EOF
	}
	fr := t.rows[t.pos]
	t.pos++
	out := make([]string, len(t.headers))
	for i, h := range t.headers {
		out[i] = fr.values[h]
	}
	return out, nil
}

type nodeKind int

const (
	kindNull nodeKind = iota
	kindString
	kindNumber
	kindBool
	kindObject
	kindArray
)

// node is an order-preserving JSON value.
type node struct {
	kind   nodeKind
	text   string
	keys   []string
	fields map[string]*node
	items  []*node
}

var errBadToken = errors.New("unexpected json token")

// MaxNestingDepth bounds how deeply arrays and objects may nest.
const MaxNestingDepth = 1000

func decodeNode(dec *json.Decoder, depth int) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return &node{kind: kindNull}, nil
	case string:
		return &node{kind: kindString, text: t}, nil
	case json.Number:
		return &node{kind: kindNumber, text: t.String()}, nil
	case bool:
		if t {
			return &node{kind: kindBool, text: "true"}, nil
		}
		return &node{kind: kindBool, text: "false"}, nil
	case json.Delim:
		if (t == '{' || t == '[') && depth >= MaxNestingDepth {
			return nil, fmt.Errorf("%w: nesting deeper than %d levels", ErrMalformed, MaxNestingDepth)
		}
		switch t {
		case '{':
			n := &node{kind: kindObject, fields: make(map[string]*node)}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				key, ok := kt.(string)
				if !ok {
					return nil, errBadToken
				}
				val, err := decodeNode(dec, depth+1)
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				if _, dup := n.fields[key]; !dup {
					n.keys = append(n.keys, key)
				}
				n.fields[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, unexpectedEOF(err)
			}
			return n, nil
		case '[':
			n := &node{kind: kindArray}
			for dec.More() {
				item, err := decodeNode(dec, depth+1)
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				n.items = append(n.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, unexpectedEOF(err)
			}
			return n, nil
		}
	}
	return nil, errBadToken
}

// unexpectedEOF turns a bare EOF inside a container into io.ErrUnexpectedEOF
// so a truncated document is not mistaken for an empty one.
func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// flatRow keeps flattened keys in first-seen order. Re-assigning a key keeps
// its original position.
type flatRow struct {
	keys   []string
	values map[string]string
}

func (f *flatRow) len() int { return len(f.keys) }

func (f *flatRow) put(k, v string) {
	if _, ok := f.values[k]; !ok {
		f.keys = append(f.keys, k)
	}
	f.values[k] = v
}

// flatten maps scalars to their text (null to ""), arrays to their compact
// JSON text, and nested objects to dot-prefixed keys.
func flatten(obj *node) *flatRow {
	fr := &flatRow{values: make(map[string]string)}
	for _, k := range obj.keys {
		v := obj.fields[k]
		switch v.kind {
		case kindNull:
			fr.put(k, "")
		case kindArray:
			var b bytes.Buffer
			writeCompact(&b, v)
			fr.put(k, b.String())
		case kindObject:
			nested := flatten(v)
			for _, nk := range nested.keys {
				fr.put(k+"."+nk, nested.values[nk])
			}
		default:
			fr.put(k, v.text)
		}
	}
	return fr
}

func writeCompact(b *bytes.Buffer, n *node) {
	switch n.kind {
	case kindNull:
		b.WriteString("null")
	case kindString:
		b.WriteString(quote(n.text))
	case kindNumber, kindBool:
		b.WriteString(n.text)
	case kindArray:
		b.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCompact(b, item)
		}
		b.WriteByte(']')
	case kindObject:
		b.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(k))
			b.WriteByte(':')
			writeCompact(b, n.fields[k])
		}
		b.WriteByte('}')
	}
}

func quote(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(b.String(), "\n")
}
