// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the rnamediator CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// envFile holds environment overrides read before the config is resolved.
const envFile = ".env"

// rootCmd is the base command for the rnamediator CLI.
var rootCmd = &cobra.Command{
	Use:   "rnamediator",
	Short: "Collect accessibility changes caused by RNA structure constraints",
	Long: `rnamediator post-processes the accessibility profiles written by the
constraint folding pipeline. For every gene it compares the unconstrained
profile with the unpaired- and paired-constraint profiles, scores every
position outside the constraint, and appends the significant positions to
Collection_unpaired.bed.gz and Collection_paired.bed.gz.

The collections can be loaded into a SQLite index and queried per gene or
per constraint.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(loadEnv, initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./rnamediator.yaml or ~/.config/rnamediator/rnamediator.yaml)")
}

// loadEnv reads .env from the working directory into the environment
// without overriding variables that are already set.
func loadEnv() {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading %s: %v\n", envFile, err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rnamediator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "rnamediator"))
		}
	}

	viper.SetEnvPrefix("RNAMEDIATOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
