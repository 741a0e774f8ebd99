//go:build !darwin

package main

const (
	exampleDeviceAddress = "C4:7C:8D:6A:12:34"
	deviceAddressNote    = "Device address format: Bluetooth MAC address\n  Example: C4:7C:8D:6A:12:34"
)
