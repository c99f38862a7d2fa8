package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"cortexbridge/core"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cortexbridge",
	Short: "Bridge to Snowflake Cortex Agents and Cortex Search",
	Long: `cortexbridge runs questions through Snowflake Cortex Agents, executes the
SQL they generate, and serves the results over HTTP, as langchaingo tools,
or from the command line.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "dotenv file to load (default is .env when present)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level, overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd, agentCmd, searchCmd, guidanceCmd)
}

// loadRuntime reads configuration and builds the logger every command shares.
func loadRuntime(logOutput io.Writer) (*core.Config, *logrus.Logger, error) {
	config, err := core.LoadConfig(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}

	return config, core.InitializeLogger(config, logOutput), nil
}

func queryArg(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
