package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtally/pkg/export"
	"github.com/matzehuels/pkgtally/pkg/export/sonatype"
	"github.com/matzehuels/pkgtally/pkg/importer"
)

// exportCommand creates the export command for the Sonatype browser flow.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		configPath string
		pkgName    string
		headful    bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export Maven download CSVs from the Sonatype statistics UI",
		Long: `Export per-artifact download statistics from the Sonatype Nexus UI.

The statistics page has no API, so a headless browser logs in, opens
Central Statistics, fills in the coordinates and clicks Export CSV. The
downloaded files land in the data directory where 'stats' picks them up.

Requires SONATYPE_USERNAME and SONATYPE_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			cfg, err = filterPackages(cfg, pkgName)
			if err != nil {
				return err
			}
			creds, err := sonatype.CredentialsFromEnv()
			if err != nil {
				return err
			}

			var opts []sonatype.Option
			if headful {
				opts = append(opts, sonatype.WithHeadful())
			}
			if timeout > 0 {
				opts = append(opts, sonatype.WithTimeout(timeout))
			}
			exporter := sonatype.NewExporter(creds, opts...)
			maven := importer.NewMaven(cfg.DataDir)
			ctx := log.WithContext(cmd.Context(), c.Logger)

			exported := 0
			for _, pkg := range cfg.Packages {
				coord := export.Coordinates{
					GroupID:    cfg.GroupID,
					ArtifactID: pkg.MavenArtifactID(),
				}
				dest := maven.CSVPath(pkg.Name)

				spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Exporting %s...", pkg.Name))
				spinner.Start()
				if err := exporter.Supply(ctx, coord, dest); err != nil {
					spinner.StopWithError(fmt.Sprintf("Export failed for %s", pkg.Name))
					printDetail("%v", err)
					continue
				}
				spinner.StopWithSuccess(fmt.Sprintf("Exported %s", pkg.Name))
				printFile(dest)
				exported++
			}

			if exported == 0 {
				return fmt.Errorf("no statistics exported")
			}
			printInfo("Exported %d of %d packages", exported, len(cfg.Packages))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default pkgtally.toml when present)")
	cmd.Flags().StringVarP(&pkgName, "package", "p", "", "export a single package")
	cmd.Flags().BoolVar(&headful, "headful", false, "run a visible browser window")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-run export timeout")

	return cmd
}
