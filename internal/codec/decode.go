package codec

import (
	"encoding/binary"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// LayoutMismatchError reports a payload whose length disagrees with its layout
type LayoutMismatchError struct {
	Layout string
	Want   int
	Got    int
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("layout mismatch: %s needs %d bytes, got %d", e.Layout, e.Want, e.Got)
}

// Is allows errors.Is(err, ErrLayoutMismatch)
func (e *LayoutMismatchError) Is(target error) bool {
	return target == ErrLayoutMismatch
}

// Record holds decoded field values in layout order
type Record struct {
	values *orderedmap.OrderedMap[string, int64]
}

// Values returns the decoded values in layout order
func (r *Record) Values() []int64 {
	out := make([]int64, 0, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Names returns the field names in layout order
func (r *Record) Names() []string {
	out := make([]string, 0, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Int returns the named value
func (r *Record) Int(name string) (int64, bool) {
	return r.values.Get(name)
}

// Uint32 returns the named value truncated to 32 bits; zero if the field is absent.
func (r *Record) Uint32(name string) uint32 {
	v, _ := r.values.Get(name)
	return uint32(v)
}

// Len returns the number of decoded fields
func (r *Record) Len() int {
	return r.values.Len()
}

// Decode unpacks data according to layout. The payload length must equal
// layout.Size() exactly.
func Decode(data []byte, layout Layout) (*Record, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if len(data) != layout.Size() {
		return nil, &LayoutMismatchError{Layout: layout.String(), Want: layout.Size(), Got: len(data)}
	}

	values := orderedmap.New[string, int64]()
	offset := 0
	for _, f := range layout {
		chunk := data[offset : offset+f.Width]
		values.Set(f.Name, decodeField(chunk, f))
		offset += f.Width
	}

	return &Record{values: values}, nil
}

func decodeField(chunk []byte, f Field) int64 {
	switch f.Width {
	case 1:
		if f.Signed {
			return int64(int8(chunk[0]))
		}
		return int64(chunk[0])
	case 2:
		v := binary.LittleEndian.Uint16(chunk)
		if f.Signed {
			return int64(int16(v))
		}
		return int64(v)
	default:
		v := binary.LittleEndian.Uint32(chunk)
		if f.Signed {
			return int64(int32(v))
		}
		return int64(v)
	}
}
