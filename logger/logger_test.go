package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/micahKingVinciworks/pdf-marketing-image-app/config"
)

func TestInitWritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "test.log")

	if err := Init(Options{Level: "debug", File: file}); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	defer Close()

	log.Info().Str("component", "test").Msg("hello from the logger test")

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from the logger test") {
		t.Errorf("log file missing message, got: %s", data)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("log file missing structured field, got: %s", data)
	}
}

func TestInitBadLevelFallsBack(t *testing.T) {
	if err := Init(Options{Level: "shouting", File: ""}); err != nil {
		t.Fatalf("Init() = %v for unknown level, want nil", err)
	}
	defer Close()

	if Get().GetLevel().String() != "info" {
		t.Errorf("level = %s, want info fallback", Get().GetLevel())
	}
}

func TestFromConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "warn", Pretty: true, File: "x.log", MaxSizeMB: 5}
	ac := config.AxiomConfig{Send: true, APIKey: "k", Dataset: "d"}

	opts := FromConfig(lc, ac)

	if opts.Level != "warn" || !opts.Pretty || opts.File != "x.log" || opts.MaxSizeMB != 5 {
		t.Errorf("logging fields not carried over: %+v", opts)
	}
	if !opts.SendToAxiom || opts.AxiomAPIKey != "k" || opts.AxiomDataset != "d" {
		t.Errorf("axiom fields not carried over: %+v", opts)
	}
}
