package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewSetsComponentAndLevel(t *testing.T) {
	logger := New("warn", "json", "testcomp")
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("expected global level warn, got %v", zerolog.GlobalLevel())
	}

	var buf bytes.Buffer
	logger = logger.Output(&buf)
	logger.Warn().Msg("hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"testcomp"`)) {
		t.Fatalf("expected component field in log line, got %s", buf.String())
	}
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	New("not-a-level", "json", "testcomp")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected fallback to info level, got %v", zerolog.GlobalLevel())
	}
}

func TestRecoverPanicSwallowsPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	func() {
		defer RecoverPanic(logger, "test-goroutine")
		panic("boom")
	}()

	if !bytes.Contains(buf.Bytes(), []byte("goroutine panic recovered")) {
		t.Fatalf("expected panic recovery to be logged, got %s", buf.String())
	}
}
