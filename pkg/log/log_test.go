package log

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNamedLoggerEmitsComponent(t *testing.T) {
	provider, buf := NewTestProvider(zerolog.DebugLevel)
	logger := provider.GetLoggerWithName("pipeline.train")

	logger.Info("training started", SamplesKey, 800, FeaturesKey, 5)

	out := buf.String()
	if !strings.Contains(out, `"component":"pipeline.train"`) {
		t.Errorf("missing component field: %s", out)
	}
	if !strings.Contains(out, `"data.samples":800`) {
		t.Errorf("missing samples field: %s", out)
	}
}

func TestWithPrepopulatesFields(t *testing.T) {
	provider, buf := NewTestProvider(zerolog.InfoLevel)
	logger := provider.GetLogger().With(RunIDKey, "run-123")

	logger.Info("metrics logged")

	if !strings.Contains(buf.String(), `"run.id":"run-123"`) {
		t.Errorf("missing pre-populated field: %s", buf.String())
	}
}

func TestToLevelFallback(t *testing.T) {
	if ToLevel("nonsense") != zerolog.InfoLevel {
		t.Error("unknown level should fall back to info")
	}
	if ToLevel("debug") != zerolog.DebugLevel {
		t.Error("debug should map to DebugLevel")
	}
}
