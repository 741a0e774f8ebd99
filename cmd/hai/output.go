package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/srg/hai/internal/poller"
	"github.com/srg/hai/internal/telemetry"
	"github.com/srg/hai/pkg/config"
	"gopkg.in/yaml.v3"
)

var (
	labelColor  = color.New(color.FgCyan)
	activeColor = color.New(color.FgGreen, color.Bold)
	errorColor  = color.New(color.FgRed)
)

// formatReading renders temperatures with two decimals and counters as integers
func formatReading(r telemetry.Reading) string {
	if r.Unit == telemetry.UnitCelsius {
		return fmt.Sprintf("%.2f", r.Value)
	}
	return fmt.Sprintf("%.0f", r.Value)
}

func yesNo(b bool) string {
	if b {
		return activeColor.Sprint("yes")
	}
	return "no"
}

// writeSnapshot renders one snapshot in the requested format
func writeSnapshot(w io.Writer, format, address string, snap telemetry.Snapshot) error {
	switch strings.ToLower(format) {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatTable, "":
		return writeSnapshotTable(w, address, snap)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeSnapshotTable(w io.Writer, address string, snap telemetry.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\n", labelColor.Sprint("Device"), address)
	fmt.Fprintf(tw, "%s\t%s\n", labelColor.Sprint("Product ID"), snap.Identity.ProductID)
	fmt.Fprintf(tw, "%s\t%s\n", labelColor.Sprint("Software"), snap.Identity.SoftwareVersion)
	fmt.Fprintf(tw, "%s\t%s\n", labelColor.Sprint("Hardware"), snap.Identity.HardwareVersion)
	fmt.Fprintf(tw, "%s\t%s\n", labelColor.Sprint("Showering"), yesNo(snap.SessionActive))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "SENSOR\tVALUE\tUNIT")
	for pair := snap.Fields().Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == telemetry.SensorShowering {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pair.Key, formatReading(pair.Value), pair.Value.Unit)
	}

	return tw.Flush()
}

// watchRecord is one line of structured watch output
type watchRecord struct {
	Address  string              `json:"address" yaml:"address"`
	At       time.Time           `json:"at" yaml:"at"`
	Snapshot *telemetry.Snapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Error    string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// writeWatchResult renders one watch cycle. JSON is one object per line, YAML
// one document per cycle, table a single summary line.
func writeWatchResult(w io.Writer, format string, res poller.Result) error {
	rec := watchRecord{Address: res.Address, At: res.At}
	if res.Err != nil {
		rec.Error = FormatUserError(res.Err)
	} else {
		snap := res.Snapshot
		rec.Snapshot = &snap
	}

	switch strings.ToLower(format) {
	case config.FormatJSON:
		return json.NewEncoder(w).Encode(rec)
	case config.FormatYAML:
		data, err := yaml.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "---\n%s", data)
		return err
	case config.FormatTable, "":
		return writeWatchLine(w, rec)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeWatchLine(w io.Writer, rec watchRecord) error {
	ts := rec.At.Format(time.RFC3339)
	if rec.Snapshot == nil {
		_, err := fmt.Fprintf(w, "%s %s %s\n", ts, rec.Address, errorColor.Sprint("no data: "+rec.Error))
		return err
	}

	parts := []string{"showering=" + yesNo(rec.Snapshot.SessionActive)}
	for pair := rec.Snapshot.Fields().Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == telemetry.SensorShowering {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s%s", pair.Key, formatReading(pair.Value), pair.Value.Unit))
	}
	_, err := fmt.Fprintf(w, "%s %s %s\n", ts, rec.Address, strings.Join(parts, " "))
	return err
}
