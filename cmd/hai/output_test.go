package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/srg/hai/inspector"
	"github.com/srg/hai/internal/poller"
	"github.com/srg/hai/internal/telemetry"
	"github.com/srg/hai/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withoutColor(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
}

func watchSnapshot() telemetry.Snapshot {
	return telemetry.Snapshot{
		Identity: telemetry.Identity{ProductID: "DEADBEEF", SoftwareVersion: "1.23", HardwareVersion: "2"},
		Last:     telemetry.LastSession{DurationS: 180, AverageTemperatureC: 37.5, VolumeML: 12000},
	}
}

func TestWriteWatchResult_Table(t *testing.T) {
	withoutColor(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, writeWatchResult(&buf, "table", poller.Result{Address: "addr", At: at, Snapshot: watchSnapshot()}))
	require.NoError(t, writeWatchResult(&buf, "table", poller.Result{Address: "addr", At: at, Err: errors.New("boom")}))

	testutils.NewTextAsserter(t).Assert(buf.String(), `
2026-01-02T03:04:05Z addr showering=no last_shower_duration=180s last_shower_avg_temp=37.50°C last_shower_volume=12000mL
2026-01-02T03:04:05Z addr no data: boom
`)
}

func TestWriteWatchResult_JSON(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, writeWatchResult(&buf, "json", poller.Result{Address: "addr", At: at, Snapshot: watchSnapshot()}))
	require.NoError(t, writeWatchResult(&buf, "json", poller.Result{Address: "addr", At: at, Err: errors.New("boom")}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "one JSON object per cycle")

	ja := testutils.NewJSONAsserter(t).WithOptions(testutils.WithIgnoreExtraKeys(false))
	ja.Assert(lines[1], `{"address": "addr", "at": "2026-01-02T03:04:05Z", "error": "boom"}`)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.NotContains(t, rec, "error")
	assert.Contains(t, rec, "snapshot")
}

func TestWriteSnapshot_UnsupportedFormat(t *testing.T) {
	assert.Error(t, writeSnapshot(&bytes.Buffer{}, "csv", "addr", telemetry.Snapshot{}))
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressPrinter(&buf, "Polling addr", "Reading")
	p.Start()

	cb := p.Callback()
	cb("Connected")
	cb("Reading")
	p.Stop()

	out := buf.String()
	assert.Contains(t, out, "Polling addr (Connecting...)")
	assert.True(t, strings.HasSuffix(out, clearLineSequence), "Stop MUST clear the progress line")
}

func TestProgressPrinter_SurvivesFailedAttempt(t *testing.T) {
	// GOAL: Verify a failed attempt keeps the progress line alive for the retry
	//
	// TEST SCENARIO: Connecting → Failed → Connecting → Reading → printer stops only on Reading

	var buf bytes.Buffer
	p := NewProgressPrinter(&buf, "Polling addr", progressStopPhases...)
	p.Start()
	defer p.Stop()

	cb := p.Callback()
	cb(inspector.PhaseConnecting)
	cb(inspector.PhaseFailed)

	select {
	case <-p.stopChan:
		t.Fatal("printer MUST NOT stop on a failed attempt")
	default:
	}

	cb(inspector.PhaseConnecting)
	cb(inspector.PhaseReading)

	select {
	case <-p.stopChan:
	default:
		t.Fatal("printer MUST stop once reading starts")
	}
}

func TestProgressPrinter_Nil(t *testing.T) {
	var p *ProgressPrinter
	p.Start()
	assert.Nil(t, p.Callback())
	p.Stop()
}
