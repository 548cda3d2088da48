package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"poolLedger/internal/source"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLedgerCommandsAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	db := filepath.Join(dir, "ledger.db")

	if _, err := runCLI(t, "add", "--sqlite-path", db, "--date", "2024-01-01", "--type", "LIQUIDITY_ADD", "--tokens", "1000", "--usdt", "50"); err != nil {
		t.Fatalf("add: %v", err)
	}

	importFile := filepath.Join(dir, "import.json")
	if err := os.WriteFile(importFile, []byte(`[{"type":"buy","tokens":"100","usdt":"10","date":"2024-01-02"}]`), 0o644); err != nil {
		t.Fatalf("write import: %v", err)
	}
	if _, err := runCLI(t, "import", importFile, "--sqlite-path", db); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, err := runCLI(t, "list", "--sqlite-path", db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var snapshot struct {
		Transactions []json.RawMessage `json:"transactions"`
		Totals       struct {
			TokensInPool string `json:"tokens_in_pool"`
		} `json:"totals"`
	}
	if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(snapshot.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(snapshot.Transactions))
	}
	if snapshot.Totals.TokensInPool != "900" {
		t.Fatalf("unexpected tokens in pool: %s", snapshot.Totals.TokensInPool)
	}

	if _, err := runCLI(t, "delete", "abc", "--sqlite-path", db); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestSyncExplorerWithoutKey(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := runCLI(t, "sync", "--store", "memory", "--source", "explorer", "--pacing-delay", "0s")
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if !source.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}

	var summary struct {
		Synced  int    `json:"synced"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Synced != 0 || summary.Message == "" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
