package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtally/pkg/export/sonatype"
	"github.com/matzehuels/pkgtally/pkg/pipeline"
	"github.com/matzehuels/pkgtally/pkg/report"
)

// statsCommand creates the stats command, the main pipeline entry point.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		configPath    string
		output        string
		registriesStr string
		refresh       bool
		markdown      bool
		pick          bool
		doExport      bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Collect download counts and render the statistics table",
		Long: `Collect download counts for every configured package across the
requested registries and render them as a table.

Counts come from the registry APIs (npm, PyPI, NuGet), the pkg.go.dev
page (Go, advisory) and previously exported Sonatype CSVs (Java). A
registry that fails costs only its own cells: the last-known cached
value is used when available, zero otherwise.

With --export, a headless browser pulls fresh Sonatype CSVs first.
This requires SONATYPE_USERNAME and SONATYPE_PASSWORD to be set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			registries, err := parseRegistries(registriesStr)
			if err != nil {
				return err
			}
			if pick {
				selected, err := pickPackages(cfg.Packages)
				if err != nil {
					return err
				}
				if len(selected) == 0 {
					printInfo("No packages selected")
					return nil
				}
				cfg.Packages = selected
			}

			opts := pipeline.Options{
				Registries:  registries,
				Refresh:     refresh,
				Export:      doExport,
				GitHubToken: os.Getenv("GITHUB_TOKEN"),
			}
			runner, err := pipeline.NewRunner(cfg, c.Logger, opts)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			if doExport {
				creds, err := sonatype.CredentialsFromEnv()
				if err != nil {
					printWarning("Export skipped: %v", err)
				} else {
					runner.SetSupplier(sonatype.NewExporter(creds))
				}
			}

			ctx := log.WithContext(cmd.Context(), c.Logger)
			prog := newProgress(c.Logger)
			spinner := newSpinnerWithContext(ctx, "Collecting download counts...")
			spinner.Start()

			result, err := runner.Execute(ctx)
			if err != nil {
				spinner.StopWithError("Collection failed")
				return err
			}
			spinner.Stop()
			prog.done(fmt.Sprintf("Collected counts for %d packages", len(cfg.Packages)))

			for _, warning := range result.Warnings {
				printWarning("%s", warning)
			}

			return c.writeReport(result, output, markdown)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default pkgtally.toml when present)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the markdown report to a file")
	cmd.Flags().StringVarP(&registriesStr, "registries", "r", "", "registry subset, comma-separated (npm,pypi,java,nuget,go)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the HTTP cache")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print markdown instead of the terminal table")
	cmd.Flags().BoolVar(&pick, "pick", false, "interactively select packages")
	cmd.Flags().BoolVar(&doExport, "export", false, "run the Sonatype browser export first")

	return cmd
}

// writeReport renders the table. Writing the report is the one operation
// that may fail the run.
func (c *CLI) writeReport(result *pipeline.Result, output string, markdown bool) error {
	switch {
	case output != "":
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		defer f.Close()
		if err := report.WriteMarkdown(f, result.Table, time.Now()); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printSuccess("Report written")
		printFile(output)
	case markdown:
		if err := report.WriteMarkdown(os.Stdout, result.Table, time.Now()); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	default:
		fmt.Println(report.Terminal(result.Table))
		printDetail("grand total: %s", report.FormatCount(result.Table.GrandTotal()))
	}
	return nil
}
