package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configCmd manages the configuration file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bitprof configuration",
}

// configInitCmd writes the default configuration file.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("config file %s already exists", cfgPath)
	}
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}
	fmt.Printf("Wrote default configuration to %s\n", cfgPath)
	return nil
}
