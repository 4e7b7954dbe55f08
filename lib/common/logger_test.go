package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"Warning": logger.WARNING,
		" error ": logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected error for invalid level")
	}
	if err := InitLoggers("verbose"); err == nil {
		t.Errorf("InitLoggers should reject invalid levels")
	}
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("pool", &buf)

	l.Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("Debug messages should be hidden at level INFO, got %q", buf.String())
	}

	l.Infof("size %d", 3)
	line := buf.String()
	if !strings.Contains(line, "INFO  | pool            | size 3") {
		t.Errorf("Unexpected log line %q", line)
	}

	buf.Reset()
	l.SetLevel(logger.ERROR)
	l.Warningf("hidden")
	l.Errorf("failed")
	if !strings.Contains(buf.String(), "ERROR | pool") || strings.Contains(buf.String(), "WARN") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}
