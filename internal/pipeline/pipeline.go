// Package pipeline orchestrates one run: load the account registry, then for
// each send-enabled account select its unsent applicants, render their
// replies, deliver them, and mark the rows as sent.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"mail-autoreply/internal/accounts"
	"mail-autoreply/internal/applicants"
	"mail-autoreply/internal/common/config"
	"mail-autoreply/internal/common/logger"
	"mail-autoreply/internal/common/metrics"
	"mail-autoreply/internal/common/retry"
	"mail-autoreply/internal/mailer"
	"mail-autoreply/internal/models"
	"mail-autoreply/internal/normalize"
	"mail-autoreply/internal/sheets"
	"mail-autoreply/internal/templates"
)

// sentMarkerFormat is the timestamp written into the sent-marker cell.
const sentMarkerFormat = "2006/01/02 15:04:05"

// TransportFactory builds the mail transport for one account. Injected so
// the SES relay can replace per-account SMTP, and so tests can capture sends.
type TransportFactory func(account models.Account) mailer.Transport

// Pipeline runs the auto-reply flow against a spreadsheet backend.
type Pipeline struct {
	cfg          *config.Config
	sheets       sheets.Service
	newTransport TransportFactory
	log          logger.Logger

	dryRun        bool
	accountFilter string

	now   func() time.Time
	pause func(ctx context.Context, d time.Duration)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDryRun renders and counts replies without delivering them or touching
// the sent markers.
func WithDryRun(enabled bool) Option {
	return func(p *Pipeline) { p.dryRun = enabled }
}

// WithAccountFilter restricts the run to accounts matching the given email
// address or client name.
func WithAccountFilter(filter string) Option {
	return func(p *Pipeline) { p.accountFilter = filter }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(cfg *config.Config, svc sheets.Service, factory TransportFactory, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:          cfg,
		sheets:       svc,
		newTransport: factory,
		log:          log,
		now:          time.Now,
		pause:        sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full pass over every send-enabled account. Per-account
// failures are contained; the returned result aggregates all accounts.
func (p *Pipeline) Run(ctx context.Context) (models.RunResult, error) {
	var total models.RunResult
	runStart := p.now()

	configHandle, err := p.sheets.Open(ctx, p.cfg.Sheets.ConfigSpreadsheetID)
	if err != nil {
		return total, fmt.Errorf("open config spreadsheet: %w", err)
	}
	p.log.Info("config spreadsheet opened", map[string]interface{}{"title": configHandle.Title})

	registryRows, err := p.sheets.ReadAll(ctx, configHandle, p.cfg.Sheets.AccountSheetName)
	if err != nil {
		return total, fmt.Errorf("read account registry: %w", err)
	}

	defaultEndpoint := mailer.Endpoint{Host: p.cfg.SMTP.DefaultHost, Port: p.cfg.SMTP.DefaultPort}
	accts := accounts.Parse(registryRows, defaultEndpoint, p.log)

	if p.accountFilter != "" {
		filtered := accts[:0]
		for _, acc := range accts {
			if acc.Email == p.accountFilter || acc.ClientName == normalize.Name(p.accountFilter) {
				filtered = append(filtered, acc)
			}
		}
		accts = filtered
		if len(accts) == 0 {
			p.log.Warn("no account matches the filter", map[string]interface{}{"filter": p.accountFilter})
		}
	}

	for _, acc := range accts {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		start := p.now()
		res := p.processAccount(ctx, acc)
		metrics.AccountDuration.WithLabelValues(acc.ClientName).Observe(p.now().Sub(start).Seconds())
		total.Add(res)
	}

	p.log.Info("run finished", map[string]interface{}{
		"elapsed":           p.now().Sub(runStart).String(),
		"accounts":          len(accts),
		"sent":              total.Sent,
		"skippedNoTemplate": total.SkippedNoTemplate,
		"skippedEmptyBody":  total.SkippedEmptyBody,
		"failed":            total.Failed,
		"sentUnmarked":      total.SentUnmarked,
		"dryRun":            p.dryRun,
	})

	return total, nil
}

// processAccount wraps runAccount with a panic boundary so one account's
// failure cannot abort the rest of the run.
func (p *Pipeline) processAccount(ctx context.Context, acc models.Account) (res models.RunResult) {
	log := p.log.WithFields(map[string]interface{}{
		"clientName": acc.ClientName,
		"account":    acc.Email,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Error("account processing panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
		}
	}()

	result, err := p.runAccount(ctx, acc, log)
	if err != nil {
		log.WithError(err).Error("account processing failed", nil)
	}
	return result
}

func (p *Pipeline) runAccount(ctx context.Context, acc models.Account, log logger.Logger) (models.RunResult, error) {
	var res models.RunResult

	handle, err := p.sheets.Open(ctx, acc.TemplateSpreadsheetID)
	if err != nil {
		return res, fmt.Errorf("open client spreadsheet: %w", err)
	}
	log.Info("client spreadsheet opened", map[string]interface{}{"title": handle.Title})

	applicantRows, err := p.sheets.ReadAll(ctx, handle, p.cfg.Sheets.ApplicantSheetName)
	if err != nil {
		return res, fmt.Errorf("read applicant sheet: %w", err)
	}

	loc := p.cfg.App.Location()
	candidates, stats, err := applicants.Select(applicantRows, p.now().In(loc), p.cfg.Pipeline.SearchDays, log)
	if err != nil {
		return res, err
	}
	metrics.ApplicantsSkipped.WithLabelValues(acc.ClientName, "already_sent").Add(float64(stats.AlreadySent))
	metrics.ApplicantsSkipped.WithLabelValues(acc.ClientName, "out_of_window").Add(float64(stats.OutOfWindow))
	metrics.ApplicantsSkipped.WithLabelValues(acc.ClientName, "no_email").Add(float64(stats.NoEmail))

	if len(candidates) == 0 {
		log.Info("no candidates for account", nil)
		return res, nil
	}

	sentCol, err := applicants.SentMarkerColumn(applicantRows[0])
	if err != nil {
		return res, err
	}

	templateRows, err := p.sheets.ReadAll(ctx, handle, p.cfg.Sheets.TemplateSheetName)
	if err != nil {
		return res, fmt.Errorf("read template sheet: %w", err)
	}
	registry := templates.ParseRegistry(templateRows, log)

	transport := p.newTransport(acc)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p.handleCandidate(ctx, transport, handle, sentCol, acc, candidate, registry, &res, log)
	}

	return res, nil
}

func (p *Pipeline) handleCandidate(
	ctx context.Context,
	transport mailer.Transport,
	handle *sheets.Handle,
	sentCol int,
	acc models.Account,
	candidate models.Applicant,
	registry templates.Registry,
	res *models.RunResult,
	log logger.Logger,
) {
	log = log.WithFields(map[string]interface{}{
		"row":  candidate.RowIndex,
		"name": candidate.Name,
	})

	// Rows without their own client name inherit the account's.
	clientName := candidate.ClientName
	if clientName == "" {
		clientName = acc.ClientName
	}

	set, ok := registry.Lookup(clientName)
	if !ok {
		log.Warn("no template registered for client, skipping", map[string]interface{}{
			"templateClient": clientName,
		})
		res.SkippedNoTemplate++
		metrics.ApplicantsSkipped.WithLabelValues(acc.ClientName, "no_template").Inc()
		return
	}

	body, bracket, ok := templates.SelectBody(candidate.Age, set)
	if !ok {
		log.Warn("template bracket is empty, skipping", map[string]interface{}{
			"bracket": string(bracket),
			"age":     candidate.AgeString(),
		})
		res.SkippedEmptyBody++
		metrics.ApplicantsSkipped.WithLabelValues(acc.ClientName, "empty_body").Inc()
		return
	}

	renderCtx := models.NewRenderContext(candidate)
	msg := mailer.Message{
		From:     acc.Email,
		FromName: acc.DisplayName,
		To:       candidate.EmailAddress,
		Subject:  templates.Subject(set.Subject, renderCtx),
		Body:     templates.Render(body, renderCtx),
	}

	if p.dryRun {
		log.Info("dry run: reply rendered, not sent", map[string]interface{}{
			"to":      msg.To,
			"subject": msg.Subject,
			"bracket": string(bracket),
		})
		res.Sent++
		return
	}

	err := retry.Do(ctx, p.cfg.SMTP.MaxRetries, p.cfg.SMTP.RetryInterval, func() error {
		return transport.Send(ctx, msg)
	})
	if err != nil {
		log.WithError(err).Error("reply delivery failed", map[string]interface{}{"to": msg.To})
		res.Failed++
		metrics.SendFailures.WithLabelValues(acc.ClientName).Inc()
		return
	}

	marker := p.now().In(p.cfg.App.Location()).Format(sentMarkerFormat)
	err = retry.Do(ctx, p.cfg.Sheets.MaxRetries, p.cfg.Sheets.RetryInterval, func() error {
		return p.sheets.UpdateCell(ctx, handle, p.cfg.Sheets.ApplicantSheetName, candidate.RowIndex, sentCol, marker)
	})
	if err != nil {
		// The reply is out; the row just is not marked. It will be picked up
		// again next run, so the operator needs to know.
		log.WithError(err).Error("reply sent but sent-marker write failed, row will be reprocessed", map[string]interface{}{
			"to": msg.To,
		})
		res.SentUnmarked++
		metrics.SentUnmarked.WithLabelValues(acc.ClientName).Inc()
	} else {
		log.Info("reply sent", map[string]interface{}{
			"to":      msg.To,
			"subject": msg.Subject,
			"bracket": string(bracket),
		})
		res.Sent++
		metrics.EmailsSent.WithLabelValues(acc.ClientName).Inc()
	}

	// Pace real sends so the provider does not rate-limit the account.
	if p.cfg.Pipeline.SendInterval > 0 {
		p.pause(ctx, p.cfg.Pipeline.SendInterval)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
