package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != SourceNode || cfg.Store != StoreSQLite {
		t.Fatalf("unexpected source/store: %s/%s", cfg.Source, cfg.Store)
	}
	if !strings.EqualFold(cfg.Chain.Pair.Hex(), DefaultPair) {
		t.Fatalf("unexpected pair: %s", cfg.Chain.Pair.Hex())
	}
	if cfg.Chain.Topics.Swap.Hex() != DefaultSwapTopic {
		t.Fatalf("unexpected swap topic: %s", cfg.Chain.Topics.Swap.Hex())
	}
	if cfg.Chain.Decimals != 18 || cfg.Chain.BlockRange != 2000 {
		t.Fatalf("unexpected chain: %+v", cfg.Chain)
	}
	if cfg.Chain.PacingDelay != 4*time.Second || cfg.Chain.BlockTime != 3*time.Second {
		t.Fatalf("unexpected timings: %+v", cfg.Chain)
	}
	if cfg.MaxPages != 1 {
		t.Fatalf("unexpected max pages: %d", cfg.MaxPages)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfgFile := filepath.Join(dir, "ledger.yaml")
	content := "source: explorer\nblock-range: 500\nexplorer-api-key: from-file\nstore: memory\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LEDGER_EXPLORER_API_KEY", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Uint64("block-range", 2000, "")
	flags.String("store", StoreSQLite, "")
	if err := flags.Parse([]string{"--block-range=100"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(cfgFile, flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chain.BlockRange != 100 {
		t.Fatalf("flag should win: %d", cfg.Chain.BlockRange)
	}
	if cfg.ExplorerAPIKey != "from-env" {
		t.Fatalf("env should beat file: %s", cfg.ExplorerAPIKey)
	}
	if cfg.Source != SourceExplorer {
		t.Fatalf("file should beat default: %s", cfg.Source)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("file should beat unchanged flag default: %s", cfg.Store)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())

	cases := map[string]string{
		"LEDGER_SOURCE":      "carrier-pigeon",
		"LEDGER_STORE":       "postgres",
		"LEDGER_PAIR":        "0x1234",
		"LEDGER_TOPIC_MINT":  "0xabcd",
		"LEDGER_BLOCK_RANGE": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load("", nil); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoadExplorerWithoutKeyIsAccepted(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEDGER_SOURCE", "explorer")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("missing key is reported by the source, got: %v", err)
	}
	if cfg.ExplorerAPIKey != "" {
		t.Fatalf("unexpected key: %q", cfg.ExplorerAPIKey)
	}
}
