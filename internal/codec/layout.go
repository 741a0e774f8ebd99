package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Operation errors
var (
	ErrLayoutMismatch   = errors.New("layout mismatch")
	ErrUnsupportedWidth = errors.New("unsupported field width")
	ErrInvalidLayout    = errors.New("invalid layout")
)

// Field describes one little-endian integer inside a characteristic payload
type Field struct {
	Name   string
	Width  int // bytes: 1, 2 or 4
	Signed bool
}

// Layout is an ordered list of fields. No alignment padding is implied.
type Layout []Field

// U8, U16, U32, I8, I16 and I32 are shorthands used by the characteristic catalog.
func U8(name string) Field  { return Field{Name: name, Width: 1} }
func U16(name string) Field { return Field{Name: name, Width: 2} }
func U32(name string) Field { return Field{Name: name, Width: 4} }
func I8(name string) Field  { return Field{Name: name, Width: 1, Signed: true} }
func I16(name string) Field { return Field{Name: name, Width: 2, Signed: true} }
func I32(name string) Field { return Field{Name: name, Width: 4, Signed: true} }

// Size returns the total wire width of the layout in bytes
func (l Layout) Size() int {
	size := 0
	for _, f := range l {
		size += f.Width
	}
	return size
}

// Validate checks that every field has a supported width and a unique name
func (l Layout) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for i, f := range l {
		switch f.Width {
		case 1, 2, 4:
		default:
			return fmt.Errorf("%w: field %q at index %d has width %d", ErrUnsupportedWidth, f.Name, i, f.Width)
		}
		if f.Name == "" {
			return fmt.Errorf("%w: field at index %d has no name", ErrInvalidLayout, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidLayout, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// String renders the layout in the same notation ParseLayout accepts
func (l Layout) String() string {
	parts := make([]string, 0, len(l))
	for _, f := range l {
		parts = append(parts, f.Name+":"+f.typeName())
	}
	return strings.Join(parts, ",")
}

func (f Field) typeName() string {
	prefix := "u"
	if f.Signed {
		prefix = "i"
	}
	return prefix + strconv.Itoa(f.Width*8)
}

// ParseLayout builds a layout from a comma-separated list of types, optionally
// named: "u32,u16" or "session_id:u32,temp:u16". Unnamed fields are called f0, f1, ...
func ParseLayout(s string) (Layout, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidLayout)
	}

	tokens := strings.Split(s, ",")
	layout := make(Layout, 0, len(tokens))
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		name := "f" + strconv.Itoa(i)
		typ := tok
		if idx := strings.IndexByte(tok, ':'); idx >= 0 {
			name = strings.TrimSpace(tok[:idx])
			typ = strings.TrimSpace(tok[idx+1:])
		}

		field, err := parseType(name, strings.ToLower(typ))
		if err != nil {
			return nil, err
		}
		layout = append(layout, field)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

func parseType(name, typ string) (Field, error) {
	if len(typ) < 2 || (typ[0] != 'u' && typ[0] != 'i') {
		return Field{}, fmt.Errorf("%w: %q is not a u<bits> or i<bits> type", ErrInvalidLayout, typ)
	}
	bits, err := strconv.Atoi(typ[1:])
	if err != nil || bits%8 != 0 {
		return Field{}, fmt.Errorf("%w: bad bit size in %q", ErrInvalidLayout, typ)
	}
	return Field{Name: name, Width: bits / 8, Signed: typ[0] == 'i'}, nil
}
