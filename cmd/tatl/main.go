package main

import (
	"fmt"
	"os"

	"github.com/da11an/tatl-sub000/internal/audit"
	"github.com/da11an/tatl-sub000/internal/config"
	"github.com/da11an/tatl-sub000/internal/ledger"
	"github.com/da11an/tatl-sub000/internal/store"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "tatl",
	Short: "tatl - a personal task and time ledger",
	Long: `tatl keeps one honest record of what you work on and when: tasks, a
priority queue, recorded sessions, and hand-offs waiting on someone else.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: openLedger,
	PersistentPostRun: closeLedger,
	// No RunE - defaults to showing help when no subcommand is provided
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tatl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tatl", version)
	},
}

var (
	cfgPath string
	dbPath  string

	cfg     *config.Config
	st      *store.Store
	svc     *ledger.Service
	journal *audit.Writer
)

// skipLedger names the commands that run without config or store.
var skipLedger = map[string]bool{
	"version":    true,
	"init":       true,
	"help":       true,
	"completion": true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default: XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd, listCmd, showCmd, modifyCmd, deleteCmd)
	rootCmd.AddCommand(doneCmd, cancelCmd)
	rootCmd.AddCommand(startCmd, stopCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(sendCmd, collectCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(doctorCmd, journalCmd, exportCmd)
	rootCmd.AddCommand(configCmd)
}

func openLedger(cmd *cobra.Command, args []string) error {
	for c := cmd; c != nil; c = c.Parent() {
		if skipLedger[c.Name()] {
			return nil
		}
	}

	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.Data.Path = dbPath
	}

	// Config commands inspect settings without touching the database.
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return nil
		}
	}

	st, err = store.Open(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	journal = audit.NewWriter(st)
	svc = ledger.NewService(st, journal, cfg.Clock.MicroThreshold)
	return nil
}

func closeLedger(cmd *cobra.Command, args []string) {
	if st != nil {
		st.Close()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
