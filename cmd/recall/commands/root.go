// ABOUTME: Root command, global flags and command registration
// ABOUTME: Global flags control log verbosity, output format and database location
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	dbPath       string
)

const banner = `
 ██████╗ ███████╗ ██████╗ █████╗ ██╗     ██╗
 ██╔══██╗██╔════╝██╔════╝██╔══██╗██║     ██║
 ██████╔╝█████╗  ██║     ███████║██║     ██║
 ██╔══██╗██╔══╝  ██║     ██╔══██║██║     ██║
 ██║  ██║███████╗╚██████╗██║  ██║███████╗███████╗
 ╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚══════╝╚══════╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Conversational memory and document retrieval",
		Long: banner + `

recall stores documents with their embeddings, finds the ones most
relevant to a message, and keeps conversation history per conversation id.

Configuration comes from environment variables (or a .env file) and an
optional YAML/TOML file named by RECALL_CONFIG.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "table", "json", "yaml":
				return nil
			}
			return fmt.Errorf("--format must be auto, table, json or yaml, got %q", outputFormat)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json or yaml")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default $XDG_DATA_HOME/recall/recall.db)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewIngestCmd(),
		NewSearchCmd(),
		NewChatCmd(),
		NewReplyCmd(),
		NewHistoryCmd(),
		NewRebuildCmd(),
		NewReembedCmd(),
		NewStatsCmd(),
		NewExportCmd(),
		NewWatchCmd(),
		NewMCPCmd(),
		NewInstallSkillCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
