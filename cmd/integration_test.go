package cmd

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/csvsentry/internal/storage"
)

const productsCSV = `ID,Nom,Prix,Quantité,Note_Client
1,Widget,5,0,4
2,Gadget,600,2000,6
3,Doohickey,50,10,1
`

// resetFlags restores every flag to its default so values do not leak between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(args ...string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// mustRunCmd is a helper to execute the root command with args.
func mustRunCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execute(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// captureStdout runs the command and returns what it printed.
func captureStdout(t *testing.T, args ...string) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	old := os.Stdout
	os.Stdout = w
	done := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		done <- string(b)
	}()
	runErr := execute(args...)
	os.Stdout = old
	_ = w.Close()
	out := <-done
	if runErr != nil {
		t.Fatalf("command %v failed: %v", args, runErr)
	}
	return out
}

// isolate points HOME and the storage directory at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CSVSENTRY_STORAGE_DIR", filepath.Join(home, "storage"))
	t.Setenv("CSVSENTRY_STORAGE_BACKEND", "local")
	t.Setenv("CSVSENTRY_QUEUE_BACKEND", "log")
	t.Setenv("CSVSENTRY_LOG_LEVEL", "error")
	return home
}

func writeProducts(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(productsCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func listJSONFiles(t *testing.T, args ...string) []storage.BlobInfo {
	t.Helper()
	out := captureStdout(t, append([]string{"list", "--json"}, args...)...)
	var files []storage.BlobInfo
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("decode list output %q: %v", out, err)
	}
	return files
}

func TestCLI_Upload_List_Run_Result(t *testing.T) {
	home := isolate(t)
	src := writeProducts(t, home, "products.csv")

	mustRunCmd(t, "upload", src)
	uploads := listJSONFiles(t, "--uploads")
	if len(uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(uploads))
	}
	name := uploads[0].Name
	if !strings.HasSuffix(name, "-products.csv") {
		t.Fatalf("unexpected stored name %q", name)
	}
	if uploads[0].ContentType != "text/csv" {
		t.Fatalf("unexpected content type %q", uploads[0].ContentType)
	}

	out := captureStdout(t, "run", name)
	var resp struct {
		Success  bool   `json:"success"`
		FileName string `json:"fileName"`
		Results  struct {
			Statistics struct {
				TotalRecords int `json:"totalRecords"`
			} `json:"statistics"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode run output: %v", err)
	}
	if !resp.Success || resp.FileName != name || resp.Results.Statistics.TotalRecords != 3 {
		t.Fatalf("unexpected run response: %+v", resp)
	}

	results := listJSONFiles(t, "--results")
	if len(results) != 1 || results[0].Name != "analysis-result-"+name {
		t.Fatalf("unexpected results listing: %+v", results)
	}
	if _, err := os.Stat(filepath.Join(home, "storage", "uploads", "analysis-result-"+name)); err != nil {
		t.Fatalf("result not stored: %v", err)
	}

	out = captureStdout(t, "result", name)
	if !strings.Contains(out, `"totalRecords": 3`) {
		t.Fatalf("result output missing statistics: %s", out)
	}
}

func TestCLI_RunWithUpload(t *testing.T) {
	home := isolate(t)
	src := writeProducts(t, home, "orders.csv")

	mustRunCmd(t, "run", "--upload", src)
	if got := listJSONFiles(t, "--results"); len(got) != 1 {
		t.Fatalf("expected one stored result, got %+v", got)
	}
}

func TestCLI_RunAndResultErrors(t *testing.T) {
	isolate(t)
	if err := execute("run", "missing.csv"); err == nil {
		t.Fatalf("expected run of a missing file to fail")
	}
	if err := execute("result", "missing.csv"); err == nil {
		t.Fatalf("expected result of a missing file to fail")
	}
	if err := execute("list", "--uploads", "--results"); err == nil {
		t.Fatalf("expected conflicting list filters to fail")
	}
}

func TestCLI_AnalyzeLocalFile(t *testing.T) {
	home := isolate(t)
	src := writeProducts(t, home, "products.csv")
	outPath := filepath.Join(home, "out", "result.json")

	mustRunCmd(t, "analyze", src, "-o", outPath)
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var res struct {
		Anomalies map[string][]map[string]any `json:"anomalies"`
	}
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(res.Anomalies["price"]) != 2 || len(res.Anomalies["quantity"]) != 2 || len(res.Anomalies["rating"]) != 1 {
		t.Fatalf("unexpected anomalies: %+v", res.Anomalies)
	}

	out := captureStdout(t, "analyze", src, "--summary")
	if !strings.Contains(out, `"total": 5`) {
		t.Fatalf("summary missing anomaly total: %s", out)
	}
}

func TestCLI_AnalyzeStrictHeaders(t *testing.T) {
	home := isolate(t)
	p := filepath.Join(home, "ambiguous.csv")
	body := "ID,Nom,Prix,Quantité,Quantité_Min,Note_Client\n1,A,20,5,1,4\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	mustRunCmd(t, "analyze", p)
	if err := execute("analyze", p, "--strict"); err == nil {
		t.Fatalf("expected --strict to reject ambiguous quantity headers")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)

	mustRunCmd(t, "config", "set", "quantity_match", "qty")
	mustRunCmd(t, "config", "set", "retry_max_attempts", "5")
	mustRunCmd(t, "config", "set", "strict_headers", "true")
	mustRunCmd(t, "config", "set", "redis_password", "supersecret")

	b, err := os.ReadFile(filepath.Join(home, ".csvsentry", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	for _, want := range []string{"quantity_match: qty", "retry_max_attempts: 5", "strict_headers: true"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("config file missing %q:\n%s", want, b)
		}
	}

	out := captureStdout(t, "config", "show")
	if !strings.Contains(out, "quantity_match: qty") {
		t.Fatalf("show missing quantity_match: %s", out)
	}
	if strings.Contains(out, "supersecret") || !strings.Contains(out, "redis_password: sup****ret") {
		t.Fatalf("secret not masked: %s", out)
	}

	if err := execute("config", "set", "log_level", "loud"); err == nil {
		t.Fatalf("expected invalid log_level to be rejected")
	}
	if err := execute("config", "set", "retry_max_attempts", "many"); err == nil {
		t.Fatalf("expected non-integer to be rejected")
	}
	if err := execute("config", "set", "no_such_key", "x"); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}
