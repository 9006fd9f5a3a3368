// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork only has to edit one file to rename the
// tool, its home directories, and its default registry.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName       string `yaml:"cli_name"`
	DisplayName   string `yaml:"display_name"`
	Description   string `yaml:"description"`
	ConfigDir     string `yaml:"config_dir"`
	CacheDir      string `yaml:"cache_dir"`
	EnvPrefix     string `yaml:"env_prefix"`
	GitHubRepo    string `yaml:"github_repo"`
	DefaultRemote string `yaml:"default_remote"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is empty.
		defaults = brand{
			CLIName:       "new",
			DisplayName:   "new",
			Description:   "Create new projects and documents from versioned template images",
			ConfigDir:     ".config/new",
			CacheDir:      ".cache/new",
			EnvPrefix:     "NEW",
			GitHubRepo:    "m4sc0/new",
			DefaultRemote: "https://repo.new.kackhost.de",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "new").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// ConfigDir returns the config directory relative to $HOME (e.g., ".config/new").
func ConfigDir() string { load(); return defaults.ConfigDir }

// CacheDir returns the cache directory relative to $HOME (e.g., ".cache/new").
// Template images live in its "images" subdirectory.
func CacheDir() string { load(); return defaults.CacheDir }

// EnvPrefix returns the environment variable prefix (e.g., "NEW").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string used in help text.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// DefaultRemote returns the registry URL used when none is configured.
func DefaultRemote() string { load(); return defaults.DefaultRemote }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("remote") → "NEW_REMOTE".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
