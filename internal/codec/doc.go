// Package codec unpacks fixed-layout little-endian characteristic payloads and
// reverses the XOR obfuscation some characteristics are stored under.
//
// A Layout is pure data: the same declaration drives both validation of the
// payload length and decoding, so a firmware that changes a characteristic's
// width surfaces as ErrLayoutMismatch instead of silently shifted values.
package codec
