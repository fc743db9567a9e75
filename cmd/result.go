package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvsentry/internal/utils"
)

var resultCmd = &cobra.Command{
	Use:   "result <name>",
	Short: "Show the stored analysis result for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		resp := a.svc.GetResult(cmd.Context(), args[0])
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
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
	rootCmd.AddCommand(resultCmd)
}
