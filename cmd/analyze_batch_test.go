package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestAnalyzeBatch_WritesResultsWithCollisionSuffix(t *testing.T) {
	home := isolate(t)

	// Two CSV files with the same basename in different directories
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	for _, d := range []string{d1, d2} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
		writeProducts(t, d, "products.csv")
	}
	outDir := filepath.Join(home, "results")

	mustRunCmd(t, "analyze-batch", filepath.Join(home, "d*", "products.csv"), "--out-dir", outDir, "--workers", "2", "--quiet")

	b1 := filepath.Join(outDir, "analysis-result-products.json")
	b2 := filepath.Join(outDir, "analysis-result-products__2.json")
	for _, p := range []string{b1, b2} {
		body, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("missing result %s: %v", p, err)
		}
		var res struct {
			Statistics struct {
				TotalRecords int `json:"totalRecords"`
			} `json:"statistics"`
		}
		if err := json.Unmarshal(body, &res); err != nil {
			t.Fatalf("decode %s: %v", p, err)
		}
		if res.Statistics.TotalRecords != 3 {
			t.Fatalf("%s: expected 3 records, got %d", p, res.Statistics.TotalRecords)
		}
	}
}

func TestAnalyzeBatch_ReportsFailedFiles(t *testing.T) {
	home := isolate(t)
	good := writeProducts(t, home, "good.csv")
	bad := filepath.Join(home, "bad.csv")
	if err := os.WriteFile(bad, []byte("ID,Nom,Prix\n1,\"unterminated,2\n"), 0o644); err != nil {
		t.Fatalf("write bad: %v", err)
	}
	outDir := filepath.Join(home, "results")

	err := execute("analyze-batch", good, bad, "--out-dir", outDir, "--quiet")
	if err == nil || err.Error() != "1 of 2 files failed" {
		t.Fatalf("expected one failure, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "analysis-result-good.json")); err != nil {
		t.Fatalf("good file should still be written: %v", err)
	}
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	home := isolate(t)
	if err := execute("analyze-batch", filepath.Join(home, "*.csv")); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
}
