package devicefactory

import (
	"testing"

	"github.com/srg/hai/internal/device"
	goble "github.com/srg/hai/internal/device/go-ble"
	"github.com/srg/hai/internal/device/tinyble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnector(t *testing.T) {
	conn, err := NewConnector("", nil)
	require.NoError(t, err)
	assert.IsType(t, &goble.Connector{}, conn, "empty backend MUST default to go-ble")

	conn, err = NewConnector("GoBLE", nil)
	require.NoError(t, err)
	assert.IsType(t, &goble.Connector{}, conn)

	conn, err = NewConnector("tinygo", nil)
	require.NoError(t, err)
	assert.IsType(t, &tinyble.Connector{}, conn)

	_, err = NewConnector("bluez-raw", nil)
	assert.ErrorIs(t, err, device.ErrUnsupported)
}
