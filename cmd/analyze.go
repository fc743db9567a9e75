package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
	"github.com/KaramelBytes/csvsentry/internal/parser"
	"github.com/KaramelBytes/csvsentry/internal/utils"
)

var (
	anaOutputPath string
	anaSummary    bool
	anaStrict     bool
	anaSheetName  string
)

// localOptions merges config values with per-command flags.
func localOptions(cmd *cobra.Command) (analysis.Options, parser.Options) {
	opt := analysis.DefaultOptions()
	popt := parser.Options{}
	if cfg != nil {
		opt = cfg.AnalysisOptions()
		popt.Sheet = cfg.XLSXSheet
	}
	if cmd.Flags().Changed("strict") {
		opt.StrictHeaders = anaStrict
	}
	if anaSheetName != "" {
		popt.Sheet = anaSheetName
	}
	return opt, popt
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a local CSV/TSV/XLSX file and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, popt := localOptions(cmd)
		res, err := parser.AnalyzeFile(path, popt, opt)
		if err != nil {
			return err
		}

		var out any = res
		if anaSummary {
			out = analysis.Summarize(res, analysis.FileMeta{Name: path, At: time.Now()})
		}
		b, err := utils.PrettyJSON(out)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, append(b, '\n')); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote analysis to %s (%d anomalies)\n", anaOutputPath, res.Anomalies.Total())
			return nil
		}
		fmt.Fprintln(os.Stdout, string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis JSON")
	analyzeCmd.Flags().BoolVar(&anaSummary, "summary", false, "print the notification summary instead of the full result")
	analyzeCmd.Flags().BoolVar(&anaStrict, "strict", false, "fail when several headers match the quantity column")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze (default first sheet)")
}
