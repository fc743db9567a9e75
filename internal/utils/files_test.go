package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.json")
	if err := SafeWriteFile(p, []byte("one")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := SafeWriteFile(p, []byte("two")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "two" {
		t.Fatalf("content = %q, err = %v", b, err)
	}
	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}
}

func TestSafeWriteFileConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "analysis-result-a.csv")
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := SafeWriteFile(p, []byte(fmt.Sprintf("writer %02d", i))); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || !strings.HasPrefix(string(b), "writer ") || len(b) != len("writer 00") {
		t.Fatalf("content = %q, err = %v", b, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the final file, got %d entries", len(entries))
	}
}

func TestCheckName(t *testing.T) {
	for _, ok := range []string{"products.csv", "1700000000000-data.xlsx", "analysis-result-a b.csv"} {
		if err := CheckName(ok); err != nil {
			t.Fatalf("CheckName(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".", "..", "../x.csv", "a/b.csv", `a\b.csv`, "x..csv"} {
		if err := CheckName(bad); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("CheckName(%q) = %v, want ErrInvalidName", bad, err)
		}
	}
}
