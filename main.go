// main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aurora-pm/aurora/internal"
)

const (
	ProgramName    = "aurora"
	ProgramVersion = "0.1.0"
)

var (
	verbose       bool
	configPath    string
	defaultConfig bool
)

// fatal prints a single-line, color-coded diagnostic and exits nonzero.
func fatal(message string) {
	fmt.Fprintln(os.Stderr, color.RedString("error:"), message)
	os.Exit(1)
}

// frontend loads the configuration and builds the backend chain. Missing
// configuration is a user-facing condition with a hint, not a stack trace.
func frontend() *internal.Frontend {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		if errors.Is(err, internal.ErrNoConfig) {
			fatal(fmt.Sprintf("%v; you can create one like this:\n\n  $ %s --default-config > /etc/aurora.yaml\n",
				err, ProgramName))
		}
		fatal(err.Error())
	}
	f, err := internal.NewFrontend(cfg)
	if err != nil {
		fatal(err.Error())
	}
	return f
}

func dispatch(action internal.Capability, names []string) error {
	if err := frontend().Dispatch(action, names); err != nil {
		fatal(err.Error())
	}
	return nil
}

func main() {
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	go func() {
		<-interrupted
		fmt.Println()
		fmt.Fprintln(os.Stderr, "interrupted")
		os.Exit(0)
	}()

	rootCmd := &cobra.Command{
		Use:     ProgramName,
		Version: ProgramVersion,
		Short:   "A modular frontend to the system package manager and community repository",
		Long: fmt.Sprintf(`aurora - a modular package management frontend
Version: %s
Go:      %s
OS/Arch: %s/%s`,
			ProgramVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			internal.SetVerbose(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaultConfig {
				return internal.DefaultConfig().Dump(os.Stdout)
			}
			return cmd.Help()
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync [package...]",
		Short: "Resolve, fetch and install packages",
		Args:  requireTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(internal.Sync, args)
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search [term...]",
		Short: "Search package sources (terms are combined)",
		Args:  requireTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(internal.Search, args)
		},
	}

	queryCmd := &cobra.Command{
		Use:   "query [package...]",
		Short: "Query installed packages (all of them when no name given)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{""}
			}
			return dispatch(internal.Query, args)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [package...]",
		Short: "Remove installed packages",
		Args:  requireTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(internal.Remove, args)
		},
	}

	upgradeCmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade all installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(internal.Upgrade, []string{""})
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path")
	rootCmd.Flags().BoolVar(&defaultConfig, "default-config", false, "Print the default configuration and exit")
	rootCmd.AddCommand(syncCmd, searchCmd, queryCmd, removeCmd, upgradeCmd)

	if err := rootCmd.Execute(); err != nil {
		fatal(err.Error())
	}
}

// requireTargets rejects an operation invoked without package arguments with
// a short user-facing diagnostic.
func requireTargets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no targets specified (use -h for help)")
	}
	return nil
}
