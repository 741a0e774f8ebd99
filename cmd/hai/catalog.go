package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/hai/internal/telemetry"
	"github.com/srg/hai/pkg/config"
	"gopkg.in/yaml.v3"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the known Hai characteristics",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

// catalogEntry is the printable form of a telemetry.CharacteristicSpec
type catalogEntry struct {
	Name      string  `json:"name" yaml:"name"`
	UUID      string  `json:"uuid" yaml:"uuid"`
	Layout    string  `json:"layout" yaml:"layout"`
	Encrypted bool    `json:"encrypted" yaml:"encrypted"`
	Scale     float64 `json:"scale" yaml:"scale"`
	Unit      string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

func catalogEntries() []catalogEntry {
	specs := telemetry.Catalog()
	entries := make([]catalogEntry, 0, len(specs))
	for _, spec := range specs {
		layout := spec.Layout.String()
		if spec.Raw() {
			layout = "raw"
		}
		entries = append(entries, catalogEntry{
			Name:      spec.Name,
			UUID:      spec.ID,
			Layout:    layout,
			Encrypted: spec.Encrypted,
			Scale:     spec.ScaleFor(telemetry.FieldValue),
			Unit:      spec.Unit,
		})
	}
	return entries
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	return writeCatalog(cmd.OutOrStdout(), cfg.OutputFormat)
}

func writeCatalog(w io.Writer, format string) error {
	entries := catalogEntries()

	switch strings.ToLower(format) {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case config.FormatYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUUID\tLAYOUT\tENCRYPTED\tSCALE\tUNIT")
	for _, e := range entries {
		enc := ""
		if e.Encrypted {
			enc = "xor"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%s\n", e.Name, e.UUID, e.Layout, enc, e.Scale, e.Unit)
	}
	return tw.Flush()
}
