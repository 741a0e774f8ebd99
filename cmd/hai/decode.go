package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/hai/internal/codec"
	"github.com/srg/hai/internal/telemetry"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <field|uuid|-> <hex>",
	Short: "Decode a captured characteristic payload",
	Long: `Decrypts and decodes a payload captured from a Hai characteristic (for
example with a BLE sniffer) without talking to the device.

The first argument names a catalog entry (see 'hai catalog') by name or UUID.
Use '-' together with --layout to decode an arbitrary payload.

Examples:
  # Current temperature, 2500 centi-degrees
  hai decode current_temp c409

  # Encrypted current volume
  hai decode current_volume 0x69:12:03:04

  # Custom layout, XOR decrypted with the device key
  hai decode - 0a00b80b --layout count:u16,temp:u16 --xor`,
	Args: cobra.ExactArgs(2),
	RunE: runDecode,
}

var (
	decodeLayout string
	decodeXor    bool
)

func init() {
	decodeCmd.Flags().StringVar(&decodeLayout, "layout", "", "Field layout overriding the catalog, e.g. 'id:u32,temp:u16'")
	decodeCmd.Flags().BoolVar(&decodeXor, "xor", false, "XOR decrypt with the device key (implied for encrypted catalog entries)")
}

// parseHexPayload accepts hex with optional space, colon, dash separators and 0x prefixes
func parseHexPayload(s string) ([]byte, error) {
	cleaned := strings.ReplaceAll(s, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ":", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(strings.ToLower(cleaned), "0x", "")

	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

// resolveDecodeSpec picks the catalog entry and applies --layout and --xor
func resolveDecodeSpec(key, layout string, xor bool) (telemetry.CharacteristicSpec, error) {
	var spec telemetry.CharacteristicSpec
	if key != "-" {
		var ok bool
		if spec, ok = telemetry.Lookup(key); !ok {
			return spec, fmt.Errorf("unknown characteristic %q (see 'hai catalog')", key)
		}
	} else {
		spec.Name = "payload"
	}

	if layout != "" {
		parsed, err := codec.ParseLayout(layout)
		if err != nil {
			return spec, err
		}
		spec.Layout = parsed
		spec.Scale = 1
		spec.Scales = nil
	}
	if xor {
		spec.Encrypted = true
	}
	if key == "-" && layout == "" {
		return spec, fmt.Errorf("--layout is required when no characteristic is named")
	}
	return spec, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	spec, err := resolveDecodeSpec(args[0], decodeLayout, decodeXor)
	if err != nil {
		return err
	}
	payload, err := parseHexPayload(args[1])
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	reader := telemetry.NewReader(logrus.New())
	out := cmd.OutOrStdout()

	if spec.Raw() {
		data := payload
		if spec.Encrypted {
			if data, err = codec.Xor(payload, codec.DefaultKey()); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(out, "%s %s\n", spec.Name, strings.ToUpper(hex.EncodeToString(data)))
		return err
	}

	rec, err := reader.Decode(spec, payload)
	if err != nil {
		return err
	}
	return writeRecord(out, spec, rec)
}

// writeRecord prints every decoded field with its raw and scaled value
func writeRecord(w io.Writer, spec telemetry.CharacteristicSpec, rec *codec.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tRAW\tVALUE\tUNIT")

	for _, name := range rec.Names() {
		raw, _ := rec.Int(name)
		value := strconv.FormatFloat(spec.Scaled(rec, name), 'f', -1, 64)
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, raw, value, spec.UnitFor(name))
	}
	return tw.Flush()
}
