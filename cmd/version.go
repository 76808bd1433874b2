package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(*cobra.Command, []string) error {
			fmt.Printf("apotek %s\n", AppVersion)
			fmt.Printf("Build Time: %s\n", BuildTime)
			fmt.Printf("Git Commit: %s\n", GitCommit)

			if key := os.Getenv("GEMINI_API_KEY"); key != "" {
				fmt.Println("GEMINI_API_KEY: configured")
			} else {
				fmt.Println("GEMINI_API_KEY: not set (required for the default gemini provider)")
			}
			return nil
		},
	}
}
