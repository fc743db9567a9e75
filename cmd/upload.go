package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var uploadContentType string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a local file to the configured storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		resp, err := a.svc.Upload(cmd.Context(), filepath.Base(args[0]), data, uploadContentType)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Uploaded %s as %s\n", filepath.Base(args[0]), resp.FileName)
		fmt.Printf("  %s\n", resp.URL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "content type to store (default: from the file extension)")
}
