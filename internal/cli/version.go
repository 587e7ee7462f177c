package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/centraunit/scopetree/internal/cli.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scopetree version",
		Args:  cobra.NoArgs,
		// Skips config loading in the root pre-run.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "scopetree %s (%s)\n", Version, Commit)
			return err
		},
	}
}
