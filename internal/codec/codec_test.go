package codec

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecode verifies little-endian decoding of every supported width and signedness
func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		layout   Layout
		data     []byte
		expected []int64
	}{
		{
			name:     "u8",
			layout:   Layout{U8("v")},
			data:     []byte{0xff},
			expected: []int64{255},
		},
		{
			name:     "i8 negative",
			layout:   Layout{I8("v")},
			data:     []byte{0xff},
			expected: []int64{-1},
		},
		{
			name:     "u16 little-endian 2500",
			layout:   Layout{U16("temp")},
			data:     []byte{0xc4, 0x09},
			expected: []int64{2500},
		},
		{
			name:     "i16 negative",
			layout:   Layout{I16("v")},
			data:     []byte{0x38, 0xff},
			expected: []int64{-200},
		},
		{
			name:     "u32 session id",
			layout:   Layout{U32("session")},
			data:     []byte{0x01, 0x00, 0x00, 0x00},
			expected: []int64{1},
		},
		{
			name:     "u32 max does not sign-extend",
			layout:   Layout{U32("v")},
			data:     []byte{0xff, 0xff, 0xff, 0xff},
			expected: []int64{4294967295},
		},
		{
			name:     "i32 negative",
			layout:   Layout{I32("v")},
			data:     []byte{0xfe, 0xff, 0xff, 0xff},
			expected: []int64{-2},
		},
		{
			name:     "mixed layout without padding",
			layout:   Layout{U8("a"), U32("b"), U16("c")},
			data:     []byte{0x07, 0x10, 0x27, 0x00, 0x00, 0x34, 0x12},
			expected: []int64{7, 10000, 0x1234},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Decode(tt.data, tt.layout)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rec.Values())
		})
	}
}

// TestDecode_LastSessionRecord verifies the six-field composite record keeps order and names
func TestDecode_LastSessionRecord(t *testing.T) {
	layout := Layout{
		U32("session_id"), U16("temp_centi_c"), U16("duration_s"),
		U32("volume_ml"), U32("start_timestamp"), U16("initial_temp_centi_c"),
	}
	data := []byte{
		0x05, 0x00, 0x00, 0x00, // session 5
		0xa6, 0x0e, // 3750
		0xb4, 0x00, // 180
		0xe0, 0x2e, 0x00, 0x00, // 12000
		0x00, 0x5e, 0xd0, 0xb2, // 3000000000
		0x10, 0x0e, // 3600
	}

	rec, err := Decode(data, layout)
	require.NoError(t, err)

	assert.Equal(t, []string{"session_id", "temp_centi_c", "duration_s", "volume_ml", "start_timestamp", "initial_temp_centi_c"}, rec.Names())
	assert.Equal(t, []int64{5, 3750, 180, 12000, 3000000000, 3600}, rec.Values())
	assert.Equal(t, uint32(3000000000), rec.Uint32("start_timestamp"))

	v, ok := rec.Int("duration_s")
	assert.True(t, ok)
	assert.Equal(t, int64(180), v)

	_, ok = rec.Int("missing")
	assert.False(t, ok)
}

// TestDecode_LayoutMismatch verifies every length other than the layout size is rejected
func TestDecode_LayoutMismatch(t *testing.T) {
	layouts := []Layout{
		{U8("a")},
		{U16("a")},
		{U32("a")},
		{U32("a"), U16("b"), U16("c"), U32("d"), U32("e"), U16("f")},
	}

	for _, layout := range layouts {
		for n := 0; n <= layout.Size()+4; n++ {
			if n == layout.Size() {
				continue
			}
			rec, err := Decode(make([]byte, n), layout)
			assert.Nil(t, rec)
			require.Error(t, err, "layout %s with %d bytes", layout, n)
			assert.True(t, errors.Is(err, ErrLayoutMismatch), "layout %s with %d bytes", layout, n)

			var mismatch *LayoutMismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, layout.Size(), mismatch.Want)
			assert.Equal(t, n, mismatch.Got)
		}
	}
}

// TestDecode_UnsupportedWidth verifies layouts with widths outside 1/2/4 are rejected
func TestDecode_UnsupportedWidth(t *testing.T) {
	_, err := Decode(make([]byte, 8), Layout{{Name: "big", Width: 8}})
	assert.ErrorIs(t, err, ErrUnsupportedWidth)

	_, err = Decode(make([]byte, 3), Layout{{Name: "odd", Width: 3}})
	assert.ErrorIs(t, err, ErrUnsupportedWidth)
}

func TestLayout_Validate(t *testing.T) {
	assert.NoError(t, Layout{U8("a"), U16("b")}.Validate())
	assert.ErrorIs(t, Layout{U8("a"), U16("a")}.Validate(), ErrInvalidLayout)
	assert.ErrorIs(t, Layout{{Width: 2}}.Validate(), ErrInvalidLayout)
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Layout
	}{
		{
			name:     "unnamed types",
			input:    "u32,u16",
			expected: Layout{U32("f0"), U16("f1")},
		},
		{
			name:     "named types with spaces",
			input:    " session_id:u32 , temp: u16 ",
			expected: Layout{U32("session_id"), U16("temp")},
		},
		{
			name:     "signed and upper case",
			input:    "I16,U8",
			expected: Layout{I16("f0"), U8("f1")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := ParseLayout(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, layout)
		})
	}
}

func TestParseLayout_Invalid(t *testing.T) {
	for _, input := range []string{"", "x32", "u", "u12", "u64", "a:u8,a:u8"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseLayout(input)
			assert.Error(t, err)
		})
	}
}

func TestLayout_StringRoundTrip(t *testing.T) {
	layout := Layout{U32("session_id"), I16("delta"), U8("flags")}
	assert.Equal(t, "session_id:u32,delta:i16,flags:u8", layout.String())

	parsed, err := ParseLayout(layout.String())
	require.NoError(t, err)
	assert.Equal(t, layout, parsed)
}

// TestXor_Involution verifies applying the key twice restores arbitrary payloads
func TestXor_Involution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 64; n++ {
		data := make([]byte, n)
		rng.Read(data)

		once, err := Xor(data, DefaultKey())
		require.NoError(t, err)
		require.Len(t, once, n)

		twice, err := Xor(once, DefaultKey())
		require.NoError(t, err)
		assert.Equal(t, data, twice, "length %d", n)
	}
}

func TestXor_Cyclic(t *testing.T) {
	data := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	out, err := Xor(data, DefaultKey())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 1, 2}, out)

	// Input is not modified in place
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, data)
}

func TestXor_EncryptedVolume(t *testing.T) {
	plain := []byte{0xe0, 0x2e, 0x00, 0x00} // 12000
	wire := []byte{plain[0] ^ 1, plain[1] ^ 2, plain[2] ^ 3, plain[3] ^ 4}

	decrypted, err := Xor(wire, DefaultKey())
	require.NoError(t, err)

	rec, err := Decode(decrypted, Layout{U32("volume_ml")})
	require.NoError(t, err)
	assert.Equal(t, uint32(12000), rec.Uint32("volume_ml"))
}

func TestXor_InvalidKey(t *testing.T) {
	out, err := Xor([]byte{1, 2, 3}, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDefaultKey_ReturnsCopy(t *testing.T) {
	key := DefaultKey()
	key[0] = 0xff

	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, DefaultKey(), "mutating a returned key MUST NOT change the device key")
}
