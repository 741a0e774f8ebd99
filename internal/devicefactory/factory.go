package devicefactory

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/hai/internal/device"
	goble "github.com/srg/hai/internal/device/go-ble"
	"github.com/srg/hai/internal/device/tinyble"
)

// Supported backend names
const (
	BackendGoBLE  = "goble"
	BackendTinyGo = "tinygo"
)

// Backends lists the accepted backend names
var Backends = []string{BackendGoBLE, BackendTinyGo}

// NewConnector creates the device.Connector for the named backend.
// This is a variable so that it can be overridden in tests.
var NewConnector = func(backend string, logger *logrus.Logger) (device.Connector, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendGoBLE:
		return goble.NewConnector(logger), nil
	case BackendTinyGo:
		return tinyble.NewConnector(logger), nil
	default:
		return nil, fmt.Errorf("%w: backend %q (must be one of %v)", device.ErrUnsupported, backend, Backends)
	}
}
