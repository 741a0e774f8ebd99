package main

import (
	"encoding/hex"
	"testing"

	"github.com/srg/hai/internal/codec"
	"github.com/srg/hai/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DecodeTestSuite struct {
	CommandTestSuite
}

func (suite *DecodeTestSuite) SetupTest() {
	suite.CommandTestSuite.SetupTest()
	decodeLayout = ""
	decodeXor = false
}

func (suite *DecodeTestSuite) TestDecode_CurrentTemperature() {
	// GOAL: Verify a captured temperature payload is decoded and scaled
	//
	// TEST SCENARIO: c409 (2500 little-endian) → raw 2500 → 25 °C

	out, err := suite.ExecuteCommand("decode", "current_temp", "c409")
	suite.Require().NoError(err)

	testutils.NewTextAsserter(suite.T()).Assert(out, `
FIELD  RAW   VALUE  UNIT
value  2500  25     °C
`)
}

func (suite *DecodeTestSuite) TestDecode_EncryptedVolume() {
	// GOAL: Verify encrypted catalog entries are XOR decrypted before decoding

	out, err := suite.ExecuteCommand("decode", "current_volume", "0x69:12:03:04")
	suite.Require().NoError(err)
	suite.Contains(out, "value  4200  4200   mL")
}

func (suite *DecodeTestSuite) TestDecode_LastSessionByUUID() {
	payload := testutils.Encrypt(testutils.DefaultHaiState().Last.Encode())

	out, err := suite.ExecuteCommand("decode", "e622140a-e12f-40f2-b0f5-aaa011c0aa8d", hex.EncodeToString(payload))
	suite.Require().NoError(err)

	suite.Contains(out, "temp_centi_c")
	suite.Contains(out, "3750")
	suite.Contains(out, "37.5")
	suite.Contains(out, "1700000000")
}

func (suite *DecodeTestSuite) TestDecode_CustomLayout() {
	out, err := suite.ExecuteCommand("decode", "-", "0100ffff", "--layout", "count:u16,delta:i16")
	suite.Require().NoError(err)

	suite.Contains(out, "count  1")
	suite.Contains(out, "delta  -1")
}

func (suite *DecodeTestSuite) TestDecode_ProductID() {
	out, err := suite.ExecuteCommand("decode", "product_id", "de:ad:be:ef")
	suite.Require().NoError(err)
	suite.Equal("product_id DEADBEEF\n", out)
}

func (suite *DecodeTestSuite) TestDecode_Errors() {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown characteristic", []string{"decode", "flow_rate", "00"}},
		{"missing layout", []string{"decode", "-", "00"}},
		{"invalid hex", []string{"decode", "current_temp", "zz"}},
		{"wrong length", []string{"decode", "current_temp", "c40900"}},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			_, err := suite.ExecuteCommand(tt.args...)
			suite.Error(err)
		})
	}
}

func (suite *DecodeTestSuite) TestDecode_WrongLengthIsLayoutMismatch() {
	_, err := suite.ExecuteCommand("decode", "current_temp", "c40900")
	suite.ErrorIs(err, codec.ErrLayoutMismatch)
}

func TestDecodeTestSuite(t *testing.T) {
	suite.Run(t, new(DecodeTestSuite))
}

func TestParseHexPayload(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{"simple hex no separators", "0102FF", []byte{0x01, 0x02, 0xFF}},
		{"hex with spaces", "01 02 FF", []byte{0x01, 0x02, 0xFF}},
		{"hex with colons", "01:02:FF", []byte{0x01, 0x02, 0xFF}},
		{"hex with dashes", "01-02-FF", []byte{0x01, 0x02, 0xFF}},
		{"hex with 0x prefixes", "0x01 0X02 0xFF", []byte{0x01, 0x02, 0xFF}},
		{"mixed separators", "0x01:02-03 04", []byte{0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseHexPayload(tt.input)
			require.NoError(t, err, "MUST parse valid hex data")
			assert.Equal(t, tt.expected, result)
		})
	}

	_, err := parseHexPayload("0g")
	assert.Error(t, err)
}

func TestResolveDecodeSpec(t *testing.T) {
	spec, err := resolveDecodeSpec("current_temp", "raw:u16", true)
	require.NoError(t, err)
	assert.True(t, spec.Encrypted, "--xor MUST force decryption")
	assert.Equal(t, 1.0, spec.ScaleFor("raw"), "custom layout MUST drop catalog scaling")

	spec, err = resolveDecodeSpec("last_session", "", false)
	require.NoError(t, err)
	assert.True(t, spec.Encrypted)
	assert.Equal(t, 18, spec.Layout.Size())
}
