// Command reorgctl is the host application this module is built to drive:
// it turns a planner's intent list into a journal, executes it, and on
// startup offers to resume or roll back whatever an earlier crash left
// behind. Command tree shape follows jra3-linear-fuse's cmd package
// (rootCmd + PersistentFlags + one file per subcommand registered from
// init).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reorgwal/internal/app"
	"reorgwal/internal/config"
	"reorgwal/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "reorgctl",
	Short: "Crash-safe, dependency-ordered bulk file reorganization",
	Long: `reorgctl turns a reorganization plan (create-folder, move, rename,
copy, delete, quarantine) into a write-ahead-logged journal, executes it
as a dependency-ordered DAG, and can resume or roll back a journal an
earlier run left incomplete.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "reorgctl:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default: none, built-in defaults apply)")
	rootCmd.PersistentFlags().String("state-dir", "", "override the configured state directory")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level (trace|debug|info|warn|error|disabled)")
	rootCmd.PersistentFlags().Bool("no-logs", false, "log to stdout only, write no log files")
}

// loadApp builds the Config/Logger/App trio every subcommand needs,
// applying persistent flag overrides on top of the loaded config file —
// the same "file then flags" layering most CLIs use.
func loadApp(cmd *cobra.Command) (*app.App, *config.Config, *logging.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	if v, _ := cmd.Flags().GetString("state-dir"); v != "" {
		cfg.StateDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetBool("no-logs"); v {
		cfg.Log.NoLogs = true
	}

	log, err := logging.New(cfg.LogSettings())
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, cfg, log, nil
}
