// Package cmd wires the sweep CLI.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Build metadata, injected through ldflags via ExecuteCLI.
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep - branch-aware local image purge",
	Long: `Sweep purges local container images that are no longer referenced by a
configured set of git branches. It checks out each branch, runs a discovery
command to collect the tags still in use, and deletes everything the
keep/remove rules select - after asking first.`,
	SilenceUsage: true,
}

// ExecuteCLI runs the root command with build metadata from the linker.
func ExecuteCLI(version, commit, date string) {
	if version != "" {
		BuildVersion = version
	}
	if commit != "" {
		BuildCommit = commit
	}
	if date != "" {
		BuildDate = date
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sweep.toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config file in standard locations
		viper.SetConfigName("sweep")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")

		if userConfigDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(userConfigDir, "sweep"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".sweep"))
		}
		viper.AddConfigPath("/etc/sweep")
	}

	viper.SetEnvPrefix("sweep")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		// An explicitly named config file must exist.
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		os.Exit(1)
	}
}
