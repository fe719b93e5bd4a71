package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "PASSWORD", "LEDGER_BACKEND", "GRID_COLS", "GRID_ROWS",
		"SAMPLING_ROUNDS", "DEFAULT_ISO", "LABELING_ENABLED", "LABEL_THRESHOLD"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.LedgerBackend != LedgerBackendFile {
		t.Errorf("expected file backend, got %s", cfg.LedgerBackend)
	}
	if cfg.GridCols != 20 || cfg.GridRows != 20 {
		t.Errorf("expected 20x20 grid, got %dx%d", cfg.GridCols, cfg.GridRows)
	}
	if cfg.SamplingRounds != 5 {
		t.Errorf("expected 5 rounds, got %d", cfg.SamplingRounds)
	}
	if cfg.DefaultISO != 400 {
		t.Errorf("expected default ISO 400, got %d", cfg.DefaultISO)
	}
	if cfg.LabelingEnabled {
		t.Error("labeling should be disabled by default")
	}
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled without a password")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PASSWORD", "secret")
	t.Setenv("LEDGER_BACKEND", "SQLite")
	t.Setenv("LABELING_ENABLED", "true")
	t.Setenv("LABEL_THRESHOLD", "0.65")
	t.Setenv("SAMPLING_ROUNDS", "not-a-number")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if !cfg.AuthEnabled() {
		t.Error("auth should be enabled with a password")
	}
	if cfg.LedgerBackend != LedgerBackendSQLite {
		t.Errorf("expected sqlite backend, got %s", cfg.LedgerBackend)
	}
	if !cfg.LabelingEnabled {
		t.Error("labeling should be enabled")
	}
	if cfg.LabelThreshold != 0.65 {
		t.Errorf("expected threshold 0.65, got %v", cfg.LabelThreshold)
	}
	if cfg.SamplingRounds != 5 {
		t.Errorf("invalid value should fall back to default, got %d", cfg.SamplingRounds)
	}
}
