// Package sonatype drives the Sonatype Nexus statistics UI with a headless
// browser to export per-artifact download CSVs. The UI is an ExtJS app
// with no stable download URL, so the exporter walks the same path a human
// would: log in, open Central Statistics, fill in the coordinates, click
// Export CSV and wait for the file to land.
package sonatype

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/matzehuels/pkgtally/pkg/errors"
	"github.com/matzehuels/pkgtally/pkg/export"
)

const defaultBaseURL = "https://s01.oss.sonatype.org"

// UI selectors. The ExtJS ids are stable across sessions except for the
// auto-generated ones, which we reach through their parent containers.
const (
	selLoginLink   = "#head-link-r"
	selLoginWindow = "#login-window"
	selUsername    = "#usernamefield"
	selPassword    = "#passwordfield"
	selStatPanel   = "#centralStatGxtPanel"
	selGroupID     = "#x-auto-14-input"
	selArtifactID  = "#x-auto-17-input"

	xpathLoginSubmit = `//div[@id="login-window"]//button[contains(text(),'Log In')]`
	xpathExportCSV   = `//button[contains(text(),'Export CSV')]`
)

const (
	defaultTimeout  = 3 * time.Minute
	downloadPoll    = time.Second
	downloadTimeout = 60 * time.Second
)

// Credentials authenticate against the Sonatype UI.
type Credentials struct {
	Username string
	Password string
}

// CredentialsFromEnv reads SONATYPE_USERNAME and SONATYPE_PASSWORD.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		Username: os.Getenv("SONATYPE_USERNAME"),
		Password: os.Getenv("SONATYPE_PASSWORD"),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, errors.New(errors.ErrCodeLogin, "SONATYPE_USERNAME and SONATYPE_PASSWORD must be set")
	}
	return creds, nil
}

// Exporter is a headless-browser export.Supplier for the Sonatype UI.
type Exporter struct {
	baseURL  string
	creds    Credentials
	headless bool
	timeout  time.Duration
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithBaseURL points the exporter at a different Nexus instance.
func WithBaseURL(url string) Option {
	return func(e *Exporter) { e.baseURL = strings.TrimRight(url, "/") }
}

// WithHeadful runs a visible browser window, useful when debugging the
// click sequence.
func WithHeadful() Option {
	return func(e *Exporter) { e.headless = false }
}

// WithTimeout bounds a single export run.
func WithTimeout(d time.Duration) Option {
	return func(e *Exporter) { e.timeout = d }
}

// NewExporter creates an Exporter with the given credentials.
func NewExporter(creds Credentials, opts ...Option) *Exporter {
	e := &Exporter{
		baseURL:  defaultBaseURL,
		creds:    creds,
		headless: true,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ export.Supplier = (*Exporter)(nil)

// Supply logs in, exports the statistics CSV for coord and moves it to
// dest. Any failure along the way is an automation error; nothing here is
// fatal to the caller.
func (e *Exporter) Supply(ctx context.Context, coord export.Coordinates, dest string) error {
	logger := log.FromContext(ctx).With("artifact", coord.ArtifactID)

	staging, err := os.MkdirTemp("", "pkgtally-export-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return errors.Wrap(errors.ErrCodeAutomation, err, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.headless),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	logger.Debug("starting export session", "staging", staging)

	if err := chromedp.Run(browserCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(staging),
		chromedp.Navigate(e.baseURL+"/#welcome"),
	); err != nil {
		return errors.Wrap(errors.ErrCodeAutomation, err, "failed to open %s", e.baseURL)
	}

	if err := e.login(browserCtx); err != nil {
		return err
	}
	logger.Debug("logged in")

	if err := e.exportCSV(browserCtx, coord); err != nil {
		return err
	}

	file, err := waitForDownload(browserCtx, staging)
	if err != nil {
		return err
	}
	logger.Debug("download complete", "file", filepath.Base(file))

	if err := moveFile(file, dest); err != nil {
		return errors.Wrap(errors.ErrCodeDownload, err, "failed to move export to %s", dest)
	}
	return nil
}

func (e *Exporter) login(ctx context.Context) error {
	if err := chromedp.Run(ctx,
		clickOrJS(selLoginLink),
		chromedp.WaitVisible(selLoginWindow, chromedp.ByQuery),
		chromedp.WaitReady(selUsername, chromedp.ByQuery),
		chromedp.SendKeys(selUsername, e.creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(selPassword, e.creds.Password, chromedp.ByQuery),
		clickOrJSXPath(xpathLoginSubmit),
		chromedp.WaitNotPresent(selLoginWindow, chromedp.ByQuery),
	); err != nil {
		return errors.Wrap(errors.ErrCodeLogin, err, "login failed")
	}
	return nil
}

func (e *Exporter) exportCSV(ctx context.Context, coord export.Coordinates) error {
	if err := chromedp.Run(ctx,
		chromedp.Navigate(e.baseURL+"/#central-stat"),
		chromedp.WaitVisible(selStatPanel, chromedp.ByQuery),
		chromedp.Clear(selGroupID, chromedp.ByQuery),
		chromedp.SendKeys(selGroupID, coord.GroupID, chromedp.ByQuery),
		chromedp.Clear(selArtifactID, chromedp.ByQuery),
		chromedp.SendKeys(selArtifactID, coord.ArtifactID, chromedp.ByQuery),
	); err != nil {
		return errors.Wrap(errors.ErrCodeSelector, err, "statistics form not reachable")
	}
	if err := chromedp.Run(ctx,
		chromedp.Click(xpathExportCSV, chromedp.BySearch),
	); err != nil {
		return errors.Wrap(errors.ErrCodeSelector, err, "export button not reachable")
	}
	return nil
}

// clickOrJS clicks a CSS-selected element, falling back to a synthetic JS
// click when the node exists but is not interactable.
func clickOrJS(sel string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		clickCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := chromedp.Click(sel, chromedp.ByQuery).Do(clickCtx); err == nil {
			return nil
		}
		js := fmt.Sprintf("document.querySelector(%q).click()", sel)
		return chromedp.Evaluate(js, nil).Do(ctx)
	})
}

// clickOrJSXPath is clickOrJS for XPath-selected elements.
func clickOrJSXPath(xpath string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		clickCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := chromedp.Click(xpath, chromedp.BySearch).Do(clickCtx); err == nil {
			return nil
		}
		js := fmt.Sprintf(
			"document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue.click()",
			xpath,
		)
		return chromedp.Evaluate(js, nil).Do(ctx)
	})
}

// waitForDownload polls dir until a finished CSV appears. Chrome writes
// partials with a .crdownload suffix, so those are skipped.
func waitForDownload(ctx context.Context, dir string) (string, error) {
	deadline := time.NewTimer(downloadTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(downloadPoll)
	defer ticker.Stop()

	for {
		if file := finishedCSV(dir); file != "" {
			return file, nil
		}
		select {
		case <-ctx.Done():
			return "", errors.Wrap(errors.ErrCodeDownload, ctx.Err(), "download interrupted")
		case <-deadline.C:
			return "", errors.New(errors.ErrCodeDownload, "no CSV appeared within %s", downloadTimeout)
		case <-ticker.C:
		}
	}
}

func finishedCSV(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".crdownload") {
			return filepath.Join(dir, name)
		}
	}
	return ""
}

// moveFile copies src to dest and removes src. A plain rename would fail
// across filesystems, which temp dirs often are.
func moveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}
