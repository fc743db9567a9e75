package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvsentry/internal/service"
	"github.com/KaramelBytes/csvsentry/internal/utils"
)

var (
	listUploads bool
	listResults bool
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored uploads and analysis results",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listUploads && listResults {
			return fmt.Errorf("specify at most one of --uploads or --results")
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		files, err := a.svc.ListFiles(cmd.Context())
		if err != nil {
			return err
		}
		shown := files[:0]
		for _, f := range files {
			isResult := strings.HasPrefix(f.Name, service.ResultPrefix)
			if (listUploads && isResult) || (listResults && !isResult) {
				continue
			}
			shown = append(shown, f)
		}
		if listJSON {
			b, err := utils.PrettyJSON(shown)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		if len(shown) == 0 {
			fmt.Println("No files found")
			return nil
		}
		for _, f := range shown {
			fmt.Printf("- %s (%s, %d bytes, %s)\n", f.Name, f.ContentType, f.Size, f.CreatedOn.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listUploads, "uploads", false, "only list uploaded files")
	listCmd.Flags().BoolVar(&listResults, "results", false, "only list analysis results")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
}
