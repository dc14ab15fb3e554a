// @title           Documentation Portal API
// @version         1.0.0
// @description     Turns uploaded source files into browsable, editable documentation. Projects are generated in the background; clients poll the status endpoint.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "docportal",
		Short:        "Documentation portal backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to `serve` when no subcommand is provided.
			return runServe(cmd.Context(), false)
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}
