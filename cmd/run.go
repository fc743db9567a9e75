package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvsentry/internal/utils"
)

var runUpload bool

var runCmd = &cobra.Command{
	Use:   "run <name|file>",
	Short: "Analyze a stored file, save its result and send the notification",
	Long: `run executes the full pipeline against the configured storage and queue.
With --upload the argument is a local file that is uploaded first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		name := args[0]
		if runUpload {
			data, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			up, err := a.svc.Upload(cmd.Context(), name, data, "")
			if err != nil {
				return err
			}
			fmt.Printf("✓ Uploaded as %s\n", up.FileName)
			name = up.FileName
		}

		resp := a.svc.AnalyzeFile(cmd.Context(), name)
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		if resp.NotificationWarning != "" {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", resp.NotificationWarning)
		}
		b, err := utils.PrettyJSON(resp)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runUpload, "upload", false, "upload the local file first, then analyze the stored copy")
}
