package logger

import (
	"bytes"
	"os"
	"testing"
)

func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestVerboseOnlyMessages(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func()
		want    string
	}{
		{"debug verbose", true, func() { Debug("fetched %d groups", 3) }, "[DEBUG] fetched 3 groups\n"},
		{"debug quiet", false, func() { Debug("fetched %d groups", 3) }, ""},
		{"section verbose", true, func() { Section("Ranking") }, "\n=== Ranking ===\n"},
		{"section quiet", false, func() { Section("Ranking") }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log()
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAlwaysOnMessages(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"info", func() { Info("wrote %s", "a.csv") }, "[INFO] wrote a.csv\n"},
		{"warn", func() { Warn("no email set") }, "[WARN] no email set\n"},
		{"error", func() { Error("subfield %s failed", "3104") }, "[ERROR] subfield 3104 failed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, false)
			tt.log()
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutput(t *testing.T) {
	buf := capture(t, false)
	if Output() != buf {
		t.Error("Output should return the writer set by SetOutput")
	}
}
