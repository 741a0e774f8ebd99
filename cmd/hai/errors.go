package main

import (
	"errors"
	"fmt"

	"github.com/srg/hai/internal/codec"
	"github.com/srg/hai/internal/device"
	"github.com/srg/hai/internal/telemetry"
)

// FormatUserError turns the errors users commonly hit into actionable messages.
// Anything unrecognised is printed as is.
func FormatUserError(err error) string {
	var (
		notFound *device.NotFoundError
		mismatch *codec.LayoutMismatchError
		readErr  *telemetry.GattReadError
	)

	switch {
	case device.IsConnectionState(err, device.BluetoothOff):
		return "Bluetooth is turned off. Turn it on and try again."
	case errors.As(err, &notFound):
		return fmt.Sprintf("%s %s not found on the device. Is it a Hai shower head?", notFound.Resource, notFound.UUID)
	case errors.As(err, &mismatch):
		return fmt.Sprintf("unexpected payload size (%d bytes, expected %d for %s). The firmware may use a different layout.",
			mismatch.Got, mismatch.Want, mismatch.Layout)
	case errors.Is(err, device.ErrTimeout):
		if errors.As(err, &readErr) {
			return fmt.Sprintf("timed out reading %s. Move closer to the shower head and try again.", readErr.Field)
		}
		return "timed out waiting for the device. Make sure it is nearby and awake (run the water briefly)."
	case device.IsConnectionState(err, device.NotConnected):
		return "the device disconnected during the poll. Try again."
	}
	return err.Error()
}
