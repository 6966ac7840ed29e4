package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "building dictionary",
			fields:  Fields{"variables": 120},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "stage applied",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "category extraction failed",
			err:     errors.New("short row"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()
			logger.log(tt.level, tt.message, tt.fields, tt.err)
			logged := buf.Len() > before

			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelDebug, &buf)

	logger.Error("fetch failed", Fields{"code": "AGEP"}, errors.New("timeout"))

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v (line %q)", err, buf.String())
	}
	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", entry.Level)
	}
	if entry.Error != "timeout" {
		t.Errorf("Error = %q, want timeout", entry.Error)
	}
	if entry.Fields["code"] != "AGEP" {
		t.Errorf("Fields[code] = %v, want AGEP", entry.Fields["code"])
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.minLevel, &buf)

			logger.log(tt.logLevel, "test", nil, nil)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" WARN ", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("variables.processed")
	m.IncrCounter("variables.processed")
	m.AddCounter("variables.processed", 3)

	if got := m.GetSnapshot().Counters["variables.processed"]; got != 5 {
		t.Errorf("Counter = %v, want 5", got)
	}
	if got := m.Counter("variables.processed"); got != 5 {
		t.Errorf("Counter() = %v, want 5", got)
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("variables.total", 10)
	m.SetGauge("variables.total", 12)

	if got := m.GetSnapshot().Gauges["variables.total"]; got != 12 {
		t.Errorf("Gauge = %v, want 12", got)
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("variable.build", 100*time.Millisecond)
	m.RecordTiming("variable.build", 200*time.Millisecond)
	m.RecordTiming("variable.build", 150*time.Millisecond)

	timing := m.GetSnapshot().Timings["variable.build"]
	if timing.Count != 3 {
		t.Errorf("Timing count = %v, want 3", timing.Count)
	}
	if timing.Min != "100ms" {
		t.Errorf("Min timing = %v, want 100ms", timing.Min)
	}
	if timing.Max != "200ms" {
		t.Errorf("Max timing = %v, want 200ms", timing.Max)
	}
	if timing.Average != "150ms" {
		t.Errorf("Average timing = %v, want 150ms", timing.Average)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("a")
	m.RecordTiming("b", time.Second)

	m.Reset()

	snap := m.GetSnapshot()
	if len(snap.Counters) != 0 || len(snap.Timings) != 0 {
		t.Errorf("snapshot after Reset = %+v, want empty", snap)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("wrote %d lines, want 4", lines)
	}

	IncrCounter("test")
	SetGauge("test", 42.0)
	RecordTiming("test", time.Second)

	snapshot := GetMetricsSnapshot()
	if snapshot.Counters["test"] < 1 {
		t.Error("GetMetricsSnapshot() missing counter")
	}
}
