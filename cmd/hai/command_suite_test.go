package main

import (
	"bytes"
	"context"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srg/hai/internal/device"
	"github.com/srg/hai/internal/devicefactory"
	"github.com/srg/hai/internal/testutils"
	"github.com/stretchr/testify/suite"
)

// TestDeviceAddress is the address every fake shower head answers on
const TestDeviceAddress = "00:00:00:00:00:01"

// CommandTestSuite runs hai commands against an in-memory shower head.
// All cmd/hai suites should embed it.
type CommandTestSuite struct {
	suite.Suite

	State      testutils.HaiState
	ConnectErr error

	mu          sync.Mutex
	Peripherals []*testutils.FakePeripheral

	origNewConnector func(string, *logrus.Logger) (device.Connector, error)
	origNoColor      bool
}

func (s *CommandTestSuite) SetupSuite() {
	s.origNewConnector = devicefactory.NewConnector
	s.origNoColor = color.NoColor
	color.NoColor = true
}

func (s *CommandTestSuite) TearDownSuite() {
	devicefactory.NewConnector = s.origNewConnector
	color.NoColor = s.origNoColor
}

func (s *CommandTestSuite) SetupTest() {
	s.State = testutils.DefaultHaiState()
	s.ConnectErr = nil
	s.Peripherals = nil

	devicefactory.NewConnector = func(backend string, logger *logrus.Logger) (device.Connector, error) {
		return device.ConnectorFunc(func(ctx context.Context, opts *device.ConnectOptions) (device.Connection, error) {
			if s.ConnectErr != nil {
				return nil, s.ConnectErr
			}
			p := testutils.NewHaiPeripheral(s.State)
			s.mu.Lock()
			s.Peripherals = append(s.Peripherals, p)
			s.mu.Unlock()
			return p, nil
		}), nil
	}

	resetFlags(rootCmd)
}

// ExecuteCommand runs the root command with args, returns output and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// so values set by one test do not leak into the next
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
