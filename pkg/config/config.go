// Package config loads and validates the pkgtally TOML configuration.
//
// The config file names the tracked packages, their per-registry name
// overrides, the Java download baselines, and the local data directory
// where CSV exports are staged. Registry-local names that are not
// overridden are derived from the canonical package name using the same
// conventions the packages were published under.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pkgtally/pkg/errors"
)

// DefaultFilename is the config file looked up in the working directory
// when no --config flag is given.
const DefaultFilename = "pkgtally.toml"

// JavaBaseline is the frozen cumulative Java download count at a cutover
// month. Sonatype exposes no full-history API, so the Java total is always
// baseline + CSV deltas recorded after the cutover, never re-derived.
type JavaBaseline struct {
	Count   int64  `toml:"count"`   // Cumulative downloads at the cutover
	Cutover string `toml:"cutover"` // Cutover month, "YYYY-MM"
}

// Package describes one tracked construct and its registry-local names.
// Empty override fields fall back to derived names.
type Package struct {
	Name        string       `toml:"name"`
	NPM         string       `toml:"npm"`          // npm package name override
	PyPI        string       `toml:"pypi"`         // PyPI project name override
	NuGet       string       `toml:"nuget"`        // NuGet package ID override
	GoPage      string       `toml:"go_page"`      // pkg.go.dev page path override
	GitHubOwner string       `toml:"github_owner"` // Owner of the -go binding repo
	GitHubRepo  string       `toml:"github_repo"`  // Name of the -go binding repo
	Java        JavaBaseline `toml:"java_baseline"`
}

// Config is the root configuration.
type Config struct {
	DataDir  string    `toml:"data_dir"` // Root of the local CSV layout
	GroupID  string    `toml:"group_id"` // Maven groupId for Sonatype exports
	Packages []Package `toml:"package"`
}

// NPMName returns the npm package name, derived from Name unless overridden.
func (p Package) NPMName() string {
	if p.NPM != "" {
		return p.NPM
	}
	return p.Name
}

// PyPIName returns the PyPI project name, derived from Name unless overridden.
func (p Package) PyPIName() string {
	if p.PyPI != "" {
		return p.PyPI
	}
	return p.Name
}

// NuGetID returns the .NET package identity. Unless overridden, the
// hyphenated name becomes Dotted.Caps with "cdk" segments dropped, the
// convention the constructs were published under (e.g.
// "cdk-comprehend-s3olap" -> "Comprehend.S3olap").
func (p Package) NuGetID() string {
	if p.NuGet != "" {
		return p.NuGet
	}
	var parts []string
	for _, part := range strings.Split(p.Name, "-") {
		if part == "cdk" || part == "" {
			continue
		}
		parts = append(parts, strings.ToUpper(part[:1])+part[1:])
	}
	return strings.Join(parts, ".")
}

// GoPagePath returns the pkg.go.dev page path carrying the imported-by
// count. Unless overridden it follows the jsii publishing layout: the Go
// binding lives in "<name>-go" under the GitHub owner, with a flattened
// package directory and a /v2/jsii suffix.
func (p Package) GoPagePath() string {
	if p.GoPage != "" {
		return p.GoPage
	}
	return fmt.Sprintf("github.com/%s/%s/%s/v2/jsii", p.GitHubOwner, p.GoRepo(), goSegment(p.Name))
}

// GoRepo returns the GitHub repository holding the Go binding, derived as
// "<name>-go" unless overridden via github_repo.
func (p Package) GoRepo() string {
	if p.GitHubRepo != "" {
		return p.GitHubRepo
	}
	return p.Name + "-go"
}

// MavenArtifactID returns the artifactId shown on the Sonatype statistics
// page. The constructs publish their Java binding under "<name>-go".
func (p Package) MavenArtifactID() string {
	return p.Name + "-go"
}

// goSegment flattens a construct name into its Go package directory:
// hyphens are dropped, and a trailing "go" (from names that already end in
// -go) is trimmed.
func goSegment(name string) string {
	s := strings.ReplaceAll(name, "-", "")
	return strings.TrimSuffix(s, "go")
}

// CutoverMonth parses the baseline cutover into a time anchored at the
// first of the month.
func (b JavaBaseline) CutoverMonth() (time.Time, error) {
	return time.Parse("2006-01", b.Cutover)
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration invariants: a well-formed package
// list, non-negative baselines, parseable cutover months, and an existing
// data directory. A broken data directory is a configuration error
// surfaced before any fetch runs, not a mid-run failure.
func (c *Config) Validate() error {
	if len(c.Packages) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no packages configured")
	}
	seen := make(map[string]bool, len(c.Packages))
	for _, p := range c.Packages {
		if err := errors.ValidatePackageName(p.Name); err != nil {
			return err
		}
		if seen[p.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate package %q", p.Name)
		}
		seen[p.Name] = true

		if p.Java.Count < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "package %q: negative java baseline %d", p.Name, p.Java.Count)
		}
		if p.Java.Cutover != "" {
			if _, err := p.Java.CutoverMonth(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "package %q: bad cutover month %q", p.Name, p.Java.Cutover)
			}
		}
	}

	if c.DataDir != "" {
		if info, err := os.Stat(c.DataDir); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "data dir %s is not accessible", c.DataDir)
		} else if !info.IsDir() {
			return errors.New(errors.ErrCodeInvalidConfig, "data dir %s is not a directory", c.DataDir)
		}
	}
	return nil
}

// Default returns the built-in configuration tracking the five published
// constructs. Used when no config file exists.
func Default() *Config {
	return &Config{
		DataDir: "data",
		GroupID: "io.github.hsiehshujeng",
		Packages: []Package{
			{Name: "cdk-comprehend-s3olap", GitHubOwner: "HsiehShuJeng"},
			{Name: "cdk-lambda-subminute", GitHubOwner: "HsiehShuJeng"},
			{Name: "cdk-emrserverless-with-delta-lake", GitHubOwner: "HsiehShuJeng"},
			{Name: "cdk-databrew-cicd", GitHubOwner: "HsiehShuJeng"},
			{
				Name:        "projen-statemachine",
				NPM:         "projen-statemachine-example",
				PyPI:        "scotthsieh-projen-statemachine",
				GitHubOwner: "HsiehShuJeng",
				GitHubRepo:  "projen-statemachine-example",
			},
		},
	}
}
