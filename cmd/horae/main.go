package main

import (
	"os"

	"github.com/spf13/cobra"

	"horae/internal/logging"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "horae",
		Short:         "Rebuild roleplay world state from annotated chat turns",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Init(logLevel)
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "horae.yaml", "Path to the project config")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(parseCmd())
	root.AddCommand(stateCmd())
	root.AddCommand(tablesCmd())
	root.AddCommand(backfillCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
