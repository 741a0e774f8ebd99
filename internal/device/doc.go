// Package device defines the GATT client abstractions the telemetry reader is
// driven through, the typed errors shared by every BLE backend, and UUID
// normalisation.
//
// Backends live in sub-packages:
//   - goble: github.com/go-ble/ble (CoreBluetooth on macOS, HCI on Linux)
//   - tinyble: tinygo.org/x/bluetooth (CoreBluetooth, BlueZ over D-Bus, WinRT)
//
// A Connection is opened per poll and closed when the poll ends; nothing in this
// package caches characteristic values.
package device
