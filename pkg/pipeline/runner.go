package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgtally/pkg/config"
	"github.com/matzehuels/pkgtally/pkg/export"
	"github.com/matzehuels/pkgtally/pkg/importer"
	"github.com/matzehuels/pkgtally/pkg/integrations"
	"github.com/matzehuels/pkgtally/pkg/integrations/github"
	"github.com/matzehuels/pkgtally/pkg/integrations/godev"
	"github.com/matzehuels/pkgtally/pkg/integrations/npm"
	"github.com/matzehuels/pkgtally/pkg/integrations/nuget"
	"github.com/matzehuels/pkgtally/pkg/integrations/pypi"
	"github.com/matzehuels/pkgtally/pkg/stats"
)

// downloadClient is the shape shared by the npm, PyPI and NuGet clients.
type downloadClient interface {
	FetchDownloads(ctx context.Context, name string, refresh bool) (*integrations.DownloadStat, error)
	LastKnownDownloads(name string) (*integrations.DownloadStat, bool)
}

// importedByClient is the pkg.go.dev client shape.
type importedByClient interface {
	FetchImportedBy(ctx context.Context, importPath string, refresh bool) (*integrations.DownloadStat, error)
	LastKnownImportedBy(importPath string) (*integrations.DownloadStat, bool)
}

// cloneClient is the GitHub traffic client shape.
type cloneClient interface {
	FetchClones(ctx context.Context, owner, repo string, refresh bool) (*github.CloneStats, error)
}

// mavenImporter is the CSV accumulation shape.
type mavenImporter interface {
	Import(pkg string) error
	Total(pkg string, baseline int64, cutover string) (int64, error)
	CSVPath(pkg string) string
}

// baselineSource is the frozen NuGet baseline lookup shape.
type baselineSource interface {
	Baseline(id string) (int64, bool)
}

// Runner executes the pipeline against a fixed configuration.
//
// The Runner is stateless apart from its clients and logger; it does not
// hold results between runs and is safe for reuse.
type Runner struct {
	cfg      *config.Config
	opts     Options
	logger   *log.Logger
	supplier export.Supplier

	maven     mavenImporter
	nugetBase baselineSource
	npm       downloadClient
	pypi      downloadClient
	nuget     downloadClient
	godev     importedByClient
	github    cloneClient

	now func() time.Time
}

// NewRunner builds a Runner with live registry clients.
func NewRunner(cfg *config.Config, logger *log.Logger, opts Options) (*Runner, error) {
	opts.setDefaults()
	if logger == nil {
		logger = log.Default()
	}

	npmClient, err := npm.NewClient(opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("npm client: %w", err)
	}
	pypiClient, err := pypi.NewClient(opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("pypi client: %w", err)
	}
	nugetClient, err := nuget.NewClient(opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("nuget client: %w", err)
	}
	godevClient, err := godev.NewClient(opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("godev client: %w", err)
	}

	r := &Runner{
		cfg:       cfg,
		opts:      opts,
		logger:    logger,
		supplier:  export.Noop{},
		maven:     importer.NewMaven(cfg.DataDir),
		nugetBase: importer.NewNuGet(cfg.DataDir),
		npm:       npmClient,
		pypi:      pypiClient,
		nuget:     nugetClient,
		godev:     godevClient,
		now:       time.Now,
	}
	if opts.GitHubToken != "" {
		ghClient, err := github.NewClient(opts.GitHubToken, opts.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("github client: %w", err)
		}
		r.github = ghClient
	}
	return r, nil
}

// SetSupplier installs the statistics exporter used when Options.Export is
// set. The default is a no-op.
func (r *Runner) SetSupplier(s export.Supplier) {
	if s != nil {
		r.supplier = s
	}
}

// Execute runs export (optional) → import → fetch → aggregate and returns
// the finished table. Registry failures degrade individual cells and are
// collected in Result.Warnings; only an internally inconsistent table is
// an error.
func (r *Runner) Execute(ctx context.Context) (*Result, error) {
	result := &Result{}

	table := stats.NewTable(r.opts.Registries)
	for _, pkg := range r.cfg.Packages {
		table.AddPackage(pkg.Name)
	}

	wantJava := r.wantRegistry(stats.RegistryJava)

	if r.opts.Export && wantJava {
		start := r.now()
		result.Warnings = append(result.Warnings, r.exportStage(ctx)...)
		result.Stats.ExportTime = time.Since(start)
		r.logger.Info("exported statistics", "duration", result.Stats.ExportTime)
	}

	if wantJava {
		start := r.now()
		result.Warnings = append(result.Warnings, r.importStage()...)
		result.Stats.ImportTime = time.Since(start)
		r.logger.Info("imported statistics", "duration", result.Stats.ImportTime)
	}

	start := r.now()
	var (
		mu      sync.Mutex
		entries []stats.Entry
		wg      sync.WaitGroup
	)
	for _, reg := range r.opts.Registries {
		wg.Add(1)
		go func(reg stats.Registry) {
			defer wg.Done()
			regEntries, warnings := r.fetchRegistry(ctx, reg)
			mu.Lock()
			defer mu.Unlock()
			entries = append(entries, regEntries...)
			result.Warnings = append(result.Warnings, warnings...)
		}(reg)
	}
	wg.Wait()
	result.Stats.FetchTime = time.Since(start)

	for _, e := range entries {
		if err := table.Add(e); err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
	}
	if err := table.CrossCheck(); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	result.Table = table

	r.logger.Info("fetched counts",
		"packages", len(r.cfg.Packages),
		"registries", len(r.opts.Registries),
		"total", table.GrandTotal(),
		"duration", result.Stats.FetchTime)

	return result, nil
}

func (r *Runner) wantRegistry(reg stats.Registry) bool {
	for _, want := range r.opts.Registries {
		if want == reg {
			return true
		}
	}
	return false
}

// exportStage downloads a fresh Sonatype CSV per package. Failures are
// warnings: the import stage works with whatever files exist.
func (r *Runner) exportStage(ctx context.Context) []string {
	var warnings []string
	for _, pkg := range r.cfg.Packages {
		coord := export.Coordinates{
			GroupID:    r.cfg.GroupID,
			ArtifactID: pkg.MavenArtifactID(),
		}
		if err := r.supplier.Supply(ctx, coord, r.maven.CSVPath(pkg.Name)); err != nil {
			r.logger.Warn("export failed", "package", pkg.Name, "err", err)
			warnings = append(warnings, fmt.Sprintf("export %s: %v", pkg.Name, err))
		}
	}
	return warnings
}

// importStage merges downloaded CSVs into the accumulation ledgers. A
// malformed file costs only its own package.
func (r *Runner) importStage() []string {
	var warnings []string
	for _, pkg := range r.cfg.Packages {
		if err := r.maven.Import(pkg.Name); err != nil {
			r.logger.Warn("import failed", "package", pkg.Name, "err", err)
			warnings = append(warnings, fmt.Sprintf("import %s: %v", pkg.Name, err))
		}
	}
	return warnings
}

// fetchRegistry fills one table column. Each registry owns a disjoint set
// of (package, registry) slots, so columns fetch concurrently without
// coordination.
func (r *Runner) fetchRegistry(ctx context.Context, reg stats.Registry) ([]stats.Entry, []string) {
	entries := make([]stats.Entry, 0, len(r.cfg.Packages))
	var warnings []string

	for _, pkg := range r.cfg.Packages {
		entry, warning := r.fetchCell(ctx, reg, pkg)
		entries = append(entries, entry)
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}
	return entries, warnings
}

func (r *Runner) fetchCell(ctx context.Context, reg stats.Registry, pkg config.Package) (stats.Entry, string) {
	switch reg {
	case stats.RegistryNPM:
		return r.downloadCell(ctx, reg, pkg.Name, pkg.NPMName(), r.npm)
	case stats.RegistryPyPI:
		return r.downloadCell(ctx, reg, pkg.Name, pkg.PyPIName(), r.pypi)
	case stats.RegistryNuGet:
		return r.nugetCell(ctx, pkg)
	case stats.RegistryJava:
		return r.javaCell(pkg)
	case stats.RegistryGo:
		return r.goCell(ctx, pkg)
	default:
		return missingEntry(pkg.Name, reg, r.now()), fmt.Sprintf("%s/%s: unknown registry", pkg.Name, reg)
	}
}

// downloadCell fetches a live count, falling back to the last-known cached
// value and finally to zero.
func (r *Runner) downloadCell(ctx context.Context, reg stats.Registry, pkg, name string, client downloadClient) (stats.Entry, string) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()

	stat, err := client.FetchDownloads(callCtx, name, r.opts.Refresh)
	if err == nil {
		r.logger.Debug("fetched downloads",
			"registry", reg,
			"package", pkg,
			"count", stat.Count,
			"since", stat.From)
		return stats.Entry{
			Package:  pkg,
			Registry: reg,
			Count:    stat.Count,
			AsOf:     stat.AsOf,
			Source:   stats.SourceLive,
		}, ""
	}

	r.logger.Warn("fetch failed", "registry", reg, "package", pkg, "err", err)
	if stale, ok := client.LastKnownDownloads(name); ok {
		return stats.Entry{
			Package:  pkg,
			Registry: reg,
			Count:    stale.Count,
			AsOf:     stale.AsOf,
			Source:   stats.SourceStale,
		}, fmt.Sprintf("%s/%s: using last-known value: %v", pkg, reg, err)
	}
	return missingEntry(pkg, reg, r.now()), fmt.Sprintf("%s/%s: %v", pkg, reg, err)
}

// nugetCell fetches the live NuGet count, falling back to the last-known
// cached value, then to the hand-recorded baseline CSV, then to zero. A
// live value always wins over the baseline.
func (r *Runner) nugetCell(ctx context.Context, pkg config.Package) (stats.Entry, string) {
	entry, warning := r.downloadCell(ctx, stats.RegistryNuGet, pkg.Name, pkg.NuGetID(), r.nuget)
	if entry.Source != stats.SourceMissing {
		return entry, warning
	}
	count, ok := r.nugetBase.Baseline(pkg.NuGetID())
	if !ok {
		return entry, warning
	}
	return stats.Entry{
		Package:  pkg.Name,
		Registry: stats.RegistryNuGet,
		Count:    count,
		AsOf:     r.now(),
		Source:   stats.SourceImported,
	}, fmt.Sprintf("%s/nuget: using baseline value", pkg.Name)
}

// javaCell reads the accumulated total: baseline plus post-cutover ledger
// months. No network involved.
func (r *Runner) javaCell(pkg config.Package) (stats.Entry, string) {
	count, err := r.maven.Total(pkg.Name, pkg.Java.Count, pkg.Java.Cutover)
	if err != nil {
		r.logger.Warn("java total failed", "package", pkg.Name, "err", err)
		return missingEntry(pkg.Name, stats.RegistryJava, r.now()),
			fmt.Sprintf("%s/java: %v", pkg.Name, err)
	}
	return stats.Entry{
		Package:  pkg.Name,
		Registry: stats.RegistryJava,
		Count:    count,
		AsOf:     r.now(),
		Source:   stats.SourceImported,
	}, ""
}

// goCell combines the pkg.go.dev imported-by count with GitHub clone
// traffic when a token is configured. The sum is advisory: neither number
// is a download count.
func (r *Runner) goCell(ctx context.Context, pkg config.Package) (stats.Entry, string) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()

	var cloneCount int64
	if r.github != nil && pkg.GitHubOwner != "" {
		if clones, err := r.github.FetchClones(callCtx, pkg.GitHubOwner, pkg.GoRepo(), r.opts.Refresh); err == nil {
			cloneCount = clones.Total
			r.logger.Info("clone traffic",
				"package", pkg.Name,
				"repo", pkg.GitHubOwner+"/"+pkg.GoRepo(),
				"clones", clones.Total,
				"unique", clones.Unique)
		} else {
			r.logger.Warn("clone traffic failed", "package", pkg.Name, "err", err)
		}
	}

	path := pkg.GoPagePath()
	stat, err := r.godev.FetchImportedBy(callCtx, path, r.opts.Refresh)
	if err == nil {
		return stats.Entry{
			Package:  pkg.Name,
			Registry: stats.RegistryGo,
			Count:    stat.Count + cloneCount,
			AsOf:     stat.AsOf,
			Source:   stats.SourceLive,
			Advisory: true,
		}, ""
	}

	r.logger.Warn("fetch failed", "registry", stats.RegistryGo, "package", pkg.Name, "err", err)
	if stale, ok := r.godev.LastKnownImportedBy(path); ok {
		return stats.Entry{
			Package:  pkg.Name,
			Registry: stats.RegistryGo,
			Count:    stale.Count + cloneCount,
			AsOf:     stale.AsOf,
			Source:   stats.SourceStale,
			Advisory: true,
		}, fmt.Sprintf("%s/go: using last-known value: %v", pkg.Name, err)
	}
	entry := missingEntry(pkg.Name, stats.RegistryGo, r.now())
	entry.Advisory = true
	if cloneCount > 0 {
		entry.Count = cloneCount
		entry.Source = stats.SourceLive
	}
	return entry, fmt.Sprintf("%s/go: %v", pkg.Name, err)
}

func missingEntry(pkg string, reg stats.Registry, now time.Time) stats.Entry {
	return stats.Entry{
		Package:  pkg,
		Registry: reg,
		Count:    0,
		AsOf:     now,
		Source:   stats.SourceMissing,
	}
}
