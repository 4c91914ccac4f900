// Package cli implements the pkgtally command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtally/pkg/buildinfo"
	"github.com/matzehuels/pkgtally/pkg/config"
	"github.com/matzehuels/pkgtally/pkg/stats"
)

// appName is the application name used for directories and display.
const appName = "pkgtally"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "pkgtally aggregates package download counts across registries",
		Long:         `pkgtally collects download statistics for a set of packages published to npm, PyPI, Maven Central, NuGet and pkg.go.dev, and renders them as a single cross-registry table.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.statsCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file, falling back to the built-in default
// set of packages when no file exists and none was requested explicitly.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultFilename); err == nil {
		return config.Load(config.DefaultFilename)
	}
	cfg := config.Default()
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseRegistries parses a comma-separated registry list. Empty means all.
func parseRegistries(s string) ([]stats.Registry, error) {
	if s == "" {
		return nil, nil
	}
	var registries []stats.Registry
	for _, part := range strings.Split(s, ",") {
		reg, err := stats.ParseRegistry(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		registries = append(registries, reg)
	}
	return registries, nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pkgtally/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// filterPackages keeps only the named package, or everything when name is
// empty.
func filterPackages(cfg *config.Config, name string) (*config.Config, error) {
	if name == "" {
		return cfg, nil
	}
	for _, pkg := range cfg.Packages {
		if pkg.Name == name {
			filtered := *cfg
			filtered.Packages = []config.Package{pkg}
			return &filtered, nil
		}
	}
	return nil, fmt.Errorf("package %q not in configuration", name)
}
