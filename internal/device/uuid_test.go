package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// 16-bit UUID formats
		{
			name:     "16-bit UUID",
			input:    "2902",
			expected: "2902",
		},
		{
			name:     "16-bit UUID uppercase with 0x prefix",
			input:    "0x180D",
			expected: "180d",
		},

		// Bluetooth SIG base UUID format (should extract 16-bit form)
		{
			name:     "Full Bluetooth SIG UUID with dashes",
			input:    "0000180d-0000-1000-8000-00805f9b34fb",
			expected: "180d",
		},
		{
			name:     "Full Bluetooth SIG UUID without dashes",
			input:    "0000290200001000800000805f9b34fb",
			expected: "2902",
		},
		{
			name:     "Full Bluetooth SIG UUID in braces",
			input:    "{00002A19-0000-1000-8000-00805F9B34FB}",
			expected: "2a19",
		},

		// Vendor 128-bit UUIDs (should NOT be shortened)
		{
			name:     "Hai session characteristic",
			input:    "e6221401-e12f-40f2-b0f5-aaa011c0aa8d",
			expected: "e6221401e12f40f2b0f5aaa011c0aa8d",
		},
		{
			name:     "Hai characteristic uppercase without dashes",
			input:    "E622140AE12F40F2B0F5AAA011C0AA8D",
			expected: "e622140ae12f40f2b0f5aaa011c0aa8d",
		},
		{
			name:     "SIG suffix with non-zero prefix",
			input:    "AA002902-0000-1000-8000-00805f9b34fb",
			expected: "aa00290200001000800000805f9b34fb",
		},

		// Edge cases
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Not hex",
			input:    "zzzz",
			expected: "",
		},
		{
			name:     "Truncated 128-bit",
			input:    "e6221401-e12f-40f2-b0f5",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUUID(tt.input))
		})
	}
}

func TestShortenUUID(t *testing.T) {
	assert.Equal(t, "e6221401", ShortenUUID("e6221401e12f40f2b0f5aaa011c0aa8d"))
	assert.Equal(t, "180d", ShortenUUID("180d"))
}

func TestValidateUUID(t *testing.T) {
	got, err := ValidateUUID("180D", "e6221401-e12f-40f2-b0f5-aaa011c0aa8d")
	require.NoError(t, err)
	assert.Equal(t, []string{"180d", "e6221401e12f40f2b0f5aaa011c0aa8d"}, got)

	_, err = ValidateUUID()
	assert.Error(t, err)

	_, err = ValidateUUID("180d", "")
	assert.ErrorContains(t, err, "index 1 cannot be empty")

	_, err = ValidateUUID("not-a-uuid")
	assert.ErrorContains(t, err, "invalid UUID format")
}
