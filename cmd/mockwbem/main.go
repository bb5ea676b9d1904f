package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cimworks/mockwbem/cmd/mockwbem/commands"
	"github.com/cimworks/mockwbem/config"
	"github.com/cimworks/mockwbem/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mockwbem",
	Short: "mockwbem - In-process CIM/WBEM object repository",
	Long: `mockwbem - In-process CIM/WBEM mock server engine.

mockwbem maintains per-namespace stores of qualifier declarations, classes,
and instances, resolves class inheritance, and answers the standard WBEM
operations (class and instance CRUD, association traversal, paginated
enumeration) entirely in memory.

Available commands:
  load     - Load a YAML model file and report what it builds
  classes  - Show the class hierarchy of a loaded model
  version  - Show version information

Examples:
  mockwbem load model.yaml               # Validate and summarize a model
  mockwbem classes model.yaml root/cimv2 # Print the class tree
  mockwbem version                       # Show build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := logger.Initialize(cfg.Log.JSON); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		commands.SetConfig(cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commands.LoadCmd)
	rootCmd.AddCommand(commands.ClassesCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
