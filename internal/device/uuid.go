package device

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// sigBaseSuffix is the Bluetooth SIG base UUID tail (0000xxxx-0000-1000-8000-00805f9b34fb)
const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a UUID string to the internal lookup format (lowercase, no dashes).
// Strips braces and a 0x prefix. For full 128-bit UUIDs in Bluetooth SIG base
// format, the 16-bit short form is returned. Returns "" for malformed input.
func NormalizeUUID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	s = strings.Trim(s, "{}")

	switch len(s) {
	case 4, 8:
		if !isHex(s) {
			return ""
		}
		return s
	}

	parsed, err := uuid.Parse(s)
	if err != nil {
		return ""
	}
	full := strings.ReplaceAll(parsed.String(), "-", "")
	if strings.HasPrefix(full, "0000") && strings.HasSuffix(full, sigBaseSuffix) {
		return full[4:8]
	}
	return full
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// ShortenUUID returns a truncated version of a UUID for display purposes.
func ShortenUUID(uuid string) string {
	if len(uuid) > 8 {
		return uuid[:8]
	}
	return uuid
}

// ValidateUUID validates that UUID strings are non-empty and well-formed.
// Returns normalized UUID strings or an error.
func ValidateUUID(uuids ...string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("at least one UUID is required")
	}

	result := make([]string, 0, len(uuids))
	for i, u := range uuids {
		if u == "" {
			return nil, fmt.Errorf("UUID at index %d cannot be empty", i)
		}
		normalized := NormalizeUUID(u)
		if normalized == "" {
			return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, u)
		}
		result = append(result, normalized)
	}
	return result, nil
}
