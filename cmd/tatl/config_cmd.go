package main

import (
	"fmt"

	"github.com/da11an/tatl-sub000/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.Scaffold()
	if err != nil {
		return err
	}
	printStatus("✓", "wrote "+path, color.FgGreen)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	path := cfgPath
	if path == "" {
		path = config.UserConfigPath()
	}
	fmt.Printf("# config file: %s\n", path)
	fmt.Print(string(out))
	return nil
}
