package cmd

import (
	"os"

	"cortexbridge/cortex"
	"cortexbridge/core"

	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent <query>",
	Short: "Run a question through the full Cortex agent and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, logger, err := loadRuntime(os.Stderr)
		if err != nil {
			return err
		}
		client, err := core.NewCortexClient(config, logger)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), client.RunAgent(cmd.Context(), queryArg(args)))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a search-only Cortex query and print text with citations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, logger, err := loadRuntime(os.Stderr)
		if err != nil {
			return err
		}
		client, err := core.NewCortexClient(config, logger)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), client.RunSearch(cmd.Context(), queryArg(args)))
	},
}

// guidance needs no configuration and never touches the network.
var guidanceCmd = &cobra.Command{
	Use:   "guidance <query>",
	Short: "Print advice for phrasing a Cortex Search query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd.OutOrStdout(), cortex.SearchGuidance(queryArg(args)))
	},
}
