package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
	"github.com/KaramelBytes/csvsentry/internal/parser"
	"github.com/KaramelBytes/csvsentry/internal/service"
	"github.com/KaramelBytes/csvsentry/internal/utils"
)

var (
	abOutDir  string
	abWorkers int
	abQuiet   bool
)

type batchItem struct {
	path string
	res  *analysis.Result
	err  error
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <glob|file> [more...]",
	Short: "Analyze multiple CSV/TSV/XLSX files and write one result JSON per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		opt, popt := localOptions(cmd)
		items := make([]batchItem, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		workers := abWorkers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		g.SetLimit(workers)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := parser.AnalyzeFile(path, popt, opt)
				items[i] = batchItem{path: path, res: res, err: err}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return fmt.Errorf("create out dir: %w", err)
			}
		}
		total := len(items)
		failed := 0
		for i, it := range items {
			if !abQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(it.path))
			}
			if it.err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", it.path, it.err)
				continue
			}
			b, err := utils.PrettyJSON(it.res)
			if err != nil {
				return err
			}
			if abOutDir == "" {
				if !abQuiet {
					fmt.Println(string(b))
				}
				continue
			}
			base := strings.TrimSuffix(filepath.Base(it.path), filepath.Ext(it.path))
			outFile := filepath.Join(abOutDir, service.ResultPrefix+base+".json")
			if _, statErr := os.Stat(outFile); statErr == nil {
				idx := 2
				for {
					cand := filepath.Join(abOutDir, fmt.Sprintf("%s%s__%d.json", service.ResultPrefix, base, idx))
					if _, err := os.Stat(cand); os.IsNotExist(err) {
						if !abQuiet {
							fmt.Printf("⚠ Detected existing result, writing to %s to avoid overwrite.\n", filepath.Base(cand))
						}
						outFile = cand
						break
					}
					idx++
				}
			}
			if err := utils.SafeWriteFile(outFile, append(b, '\n')); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			if !abQuiet {
				fmt.Printf("✓ Wrote %s (%d records, %d anomalies)\n", filepath.Base(outFile), it.res.Statistics.TotalRecords, it.res.Anomalies.Total())
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for analysis-result-<name>.json files (default: print to stdout)")
	analyzeBatchCmd.Flags().IntVar(&abWorkers, "workers", 0, "files analyzed in parallel (default: number of CPUs)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	analyzeBatchCmd.Flags().BoolVar(&anaStrict, "strict", false, "fail when several headers match the quantity column")
	analyzeBatchCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze (default first sheet)")
}
