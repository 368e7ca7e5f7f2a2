// Package config loads and validates the sweep configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/bnema/sweep/internal/domain"
	"github.com/bnema/sweep/internal/usecase/purge"
)

// Config is the full purge configuration. Values come from flags, SWEEP_*
// environment variables and an optional config file, in that precedence.
type Config struct {
	Repo        string
	ListCommand string
	Branches    []string

	KeepPattern   string
	OnlyPattern   string
	RemovePattern string

	RemoveDangling bool
	DryRun         bool
	LogLevel       string

	// Rules holds the compiled classification rules.
	Rules domain.Rules
}

// Load reads the configuration from viper and validates it. Patterns are
// compiled here so an invalid regex fails before any work starts.
func Load() (*Config, error) {
	viper.SetDefault("remove_dangling", true)
	viper.SetDefault("log_level", "info")

	cfg := &Config{
		Repo:           viper.GetString("repo"),
		ListCommand:    viper.GetString("list_cmd"),
		Branches:       splitBranches(viper.GetString("branches")),
		KeepPattern:    viper.GetString("keep_pattern"),
		OnlyPattern:    viper.GetString("only_pattern"),
		RemovePattern:  viper.GetString("remove_pattern"),
		RemoveDangling: viper.GetBool("remove_dangling"),
		DryRun:         viper.GetBool("dry_run"),
		LogLevel:       viper.GetString("log_level"),
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf("repo is required (--repo)")
	}
	if cfg.ListCommand == "" {
		return nil, fmt.Errorf("discovery command is required (--list-cmd)")
	}
	if len(cfg.Branches) == 0 {
		return nil, fmt.Errorf("at least one branch is required (--branches)")
	}

	cfg.Rules = domain.Rules{RemoveDangling: cfg.RemoveDangling}

	var err error
	if cfg.KeepPattern != "" {
		if cfg.Rules.Keep, err = purge.CompilePattern(cfg.KeepPattern); err != nil {
			return nil, fmt.Errorf("keep-pattern: %w", err)
		}
	}
	if cfg.RemovePattern != "" {
		if cfg.Rules.AlwaysRemove, err = purge.CompilePattern(cfg.RemovePattern); err != nil {
			return nil, fmt.Errorf("remove-pattern: %w", err)
		}
	}
	if cfg.OnlyPattern != "" {
		if cfg.Rules.Only, err = purge.CompilePattern(cfg.OnlyPattern); err != nil {
			return nil, fmt.Errorf("only-pattern: %w", err)
		}
	}

	return cfg, nil
}

// splitBranches parses the comma-delimited branch list, preserving order and
// dropping empty segments.
func splitBranches(raw string) []string {
	var branches []string
	for _, part := range strings.Split(raw, ",") {
		branch := strings.TrimSpace(part)
		if branch == "" {
			continue
		}
		branches = append(branches, branch)
	}
	return branches
}
