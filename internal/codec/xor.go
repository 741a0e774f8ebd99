package codec

import "errors"

// ErrInvalidKey is returned for an empty XOR key
var ErrInvalidKey = errors.New("invalid xor key")

var defaultKey = [...]byte{1, 2, 3, 4, 5, 6}

// DefaultKey returns a copy of the obfuscation key the shower head applies to
// its encrypted characteristics
func DefaultKey() []byte {
	key := defaultKey
	return key[:]
}

// Xor applies key cyclically over data and returns a new slice. Applying it
// twice with the same key restores the input.
func Xor(data, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrInvalidKey
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out, nil
}
