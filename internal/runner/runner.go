// Package runner sequences the per-account pipeline: session, listing,
// attachment resolution, deduplication, and concurrent download.
package runner

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/saferoute/sheetfetch/internal/api"
	"github.com/saferoute/sheetfetch/internal/config"
	"github.com/saferoute/sheetfetch/internal/download"
	"github.com/saferoute/sheetfetch/internal/fanout"
	"github.com/saferoute/sheetfetch/internal/httpx"
	"github.com/saferoute/sheetfetch/internal/logging"
)

// AccountSummary reports what happened for one account.
type AccountSummary struct {
	Account    int // 1-based position in the credential list
	Sheets     int // travel sheets listed
	Resolved   int // resolver requests that completed
	Projects   int // distinct special projects with an attachment
	Downloaded int
	Existing   int // skipped because the file was already on disk
	Skipped    int // skipped because no filename could be resolved
	Failed     int // transport or parse failures during download
	Err        error
}

// Runner executes the batch across all configured accounts.
type Runner struct {
	cfg    *config.Config
	base   *nethttp.Client
	logger *logging.Logger
}

// New creates a Runner. base supplies the shared transport for all account
// sessions.
func New(cfg *config.Config, base *nethttp.Client, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Runner{cfg: cfg, base: base, logger: logger}
}

// Run processes every account in order. Accounts are independent: one
// account's failure is recorded in its summary and the remaining accounts
// still run. The returned error is non-nil when any account failed outright
// or the context was cancelled.
func (r *Runner) Run(ctx context.Context) ([]AccountSummary, error) {
	summaries := make([]AccountSummary, 0, len(r.cfg.Credentials))
	failed := 0

	for i, credential := range r.cfg.Credentials {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}

		number := i + 1
		r.logger.Info().Int("account", number).Msg("start account")

		summary := r.runAccount(ctx, number, credential)
		summaries = append(summaries, summary)

		if summary.Err != nil {
			failed++
			r.logger.Error().
				Int("account", number).
				Err(summary.Err).
				Msg("account failed")
			continue
		}

		r.logger.Info().
			Int("account", number).
			Int("sheets", summary.Sheets).
			Int("projects", summary.Projects).
			Int("downloaded", summary.Downloaded).
			Int("existing", summary.Existing).
			Msg("finished account")
	}

	if failed > 0 {
		return summaries, fmt.Errorf("%d of %d accounts failed", failed, len(summaries))
	}
	return summaries, nil
}

// runAccount runs the full pipeline for one credential. A listing failure
// fails the account; resolver and download failures are folded into the
// counters.
func (r *Runner) runAccount(ctx context.Context, number int, credential string) AccountSummary {
	summary := AccountSummary{Account: number}

	session, err := httpx.NewSession(r.base, r.cfg.BaseURL, credential)
	if err != nil {
		summary.Err = fmt.Errorf("open session: %w", err)
		return summary
	}
	defer session.Close()

	client := api.NewClient(session, r.cfg.ListLimit, r.cfg.RequestTimeout, r.logger)

	sheets, err := client.ListTravelSheets(ctx)
	if err != nil {
		summary.Err = fmt.Errorf("list travel sheets: %w", err)
		return summary
	}
	summary.Sheets = len(sheets)
	r.logger.Info().
		Int("account", number).
		Int("sheets", len(sheets)).
		Msg("received all travel sheets")

	projects := r.resolveProjects(ctx, client, sheets, &summary)
	summary.Projects = len(projects)
	r.logger.Info().
		Int("account", number).
		Int("resolved", summary.Resolved).
		Int("sheets", summary.Sheets).
		Int("with_documents", len(projects)).
		Msg("resolved attachments")

	if len(projects) == 0 {
		return summary
	}

	r.downloadProjects(ctx, client, projects, &summary)
	r.logger.Info().
		Int("account", number).
		Msgf("successful downloads %d/%d", summary.Downloaded, len(projects))

	return summary
}

// resolveProjects fans out the attachment lookups and deduplicates the
// results. Set semantics: duplicates collapse, the no-attachment sentinel is
// dropped, and the surviving UUIDs are sorted only to make logs and tests
// deterministic.
func (r *Runner) resolveProjects(ctx context.Context, client *api.Client, sheets []string, summary *AccountSummary) []string {
	results := fanout.Run(ctx, sheets, r.cfg.MaxConcurrent, client.SpecialProjectUUID)

	seen := make(map[string]struct{})
	for _, res := range results {
		if res.Err != nil {
			r.logger.Warn().Err(res.Err).Msg("attachment lookup failed")
			continue
		}
		summary.Resolved++
		if res.Value == "" {
			continue
		}
		seen[res.Value] = struct{}{}
	}

	projects := make([]string, 0, len(seen))
	for uuid := range seen {
		projects = append(projects, uuid)
	}
	sort.Strings(projects)
	return projects
}

// downloadProjects fans out the document downloads and tallies the outcomes.
func (r *Runner) downloadProjects(ctx context.Context, client *api.Client, projects []string, summary *AccountSummary) {
	dl := download.New(client, r.cfg.OutputDir, r.logger)
	bar := newProgressBar(summary.Account, len(projects))

	results := fanout.Run(ctx, projects, r.cfg.MaxConcurrent, func(ctx context.Context, uuid string) (download.Outcome, error) {
		outcome := dl.Fetch(ctx, uuid)
		bar.Add(1)
		return outcome, nil
	})
	bar.Finish()

	for _, res := range results {
		if res.Err != nil {
			// Only context cancellation reaches here; Fetch folds its own
			// failures into the outcome.
			summary.Failed++
			continue
		}
		switch res.Value.Status {
		case download.Downloaded:
			summary.Downloaded++
		case download.AlreadyExists:
			summary.Existing++
		case download.SkippedNoFilename:
			summary.Skipped++
		case download.TransportError, download.ParseError:
			summary.Failed++
		}
	}
}

// newProgressBar returns a per-account batch bar on stderr, or an invisible
// one when stderr is not a terminal.
func newProgressBar(account, total int) *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("account %d", account)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
