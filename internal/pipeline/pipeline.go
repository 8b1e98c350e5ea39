// Package pipeline orchestrates a statement run: dataset materialization,
// per-document generation and delivery, all resumable through the ledger.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"merchant-statements/internal/aggregate"
	"merchant-statements/internal/config"
	"merchant-statements/internal/dataset"
	"merchant-statements/internal/fanout"
	"merchant-statements/internal/fileutils"
	"merchant-statements/internal/ledger"
	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
	"merchant-statements/internal/reconcile"
	"merchant-statements/internal/render"
	"merchant-statements/internal/report"
	"merchant-statements/internal/store"
	"merchant-statements/internal/transport"
)

// Deps are the collaborators of a Pipeline. Tests substitute doubles here;
// NewFromConfig wires the real implementations.
type Deps struct {
	Source   dataset.Source
	Ledger   *ledger.Ledger
	Storage  render.Storage
	Renderer render.Renderer
	Sender   transport.Sender
	Texts    map[models.DocumentKind]store.StatementTexts
	Logger   logging.Logger
}

// Pipeline runs the statement passes for one period.
type Pipeline struct {
	cfg    *config.Config
	period models.Period

	source   dataset.Source
	ledger   *ledger.Ledger
	storage  render.Storage
	renderer render.Renderer
	sender   transport.Sender
	texts    map[models.DocumentKind]store.StatementTexts

	normalizer *dataset.Normalizer
	reconciler *reconcile.Reconciler
	engine     *aggregate.Engine
	logger     logging.Logger
}

// New creates a pipeline for one period from explicit collaborators.
func New(cfg *config.Config, period models.Period, deps Deps) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		period:     period,
		source:     deps.Source,
		ledger:     deps.Ledger,
		storage:    deps.Storage,
		renderer:   deps.Renderer,
		sender:     deps.Sender,
		texts:      deps.Texts,
		normalizer: dataset.NewNormalizer(deps.Logger),
		reconciler: reconcile.NewReconciler(deps.Logger),
		engine:     aggregate.NewEngine(deps.Logger),
		logger:     deps.Logger,
	}
}

// LedgerPath returns the per-period ledger location under the state
// directory.
func LedgerPath(stateDir string, period models.Period) string {
	return filepath.Join(stateDir, fmt.Sprintf("ledger_%s.csv", period.Key()))
}

// NewFromConfig wires a pipeline with the filesystem source, local document
// storage, the HTML renderer and, when delivery is enabled, the SMTP
// transport.
func NewFromConfig(cfg *config.Config, period models.Period, logger logging.Logger) (*Pipeline, error) {
	led, err := ledger.Load(LedgerPath(cfg.Data.StateDir, period), logger)
	if err != nil {
		return nil, err
	}

	storage := render.NewFSStorage(cfg.Data.OutputDir, logger)
	renderer, err := render.NewTemplateRenderer(cfg.Data.TemplatesDir, storage, logger)
	if err != nil {
		return nil, err
	}

	texts, err := store.NewTextStore(cfg.Data.TextsFile, logger).Load()
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Source:   dataset.NewFileSource(cfg.Data.InputDir, logger),
		Ledger:   led,
		Storage:  storage,
		Renderer: renderer,
		Texts:    texts,
		Logger:   logger,
	}
	if cfg.Run.Deliver {
		deps.Sender = transport.NewSMTPSender(
			cfg.Mail.Host, cfg.Mail.Port,
			cfg.Mail.User, cfg.Mail.Password,
			!cfg.Mail.SendToAll, cfg.Mail.TestRecipient,
			logger)
	}
	return New(cfg, period, deps), nil
}

// Materialized holds the run-scoped working set: the recipient registry and
// the reconciled, pre-aggregated tables.
type Materialized struct {
	Registry *models.Registry
	Tables   *aggregate.Tables
	Coverage []reconcile.Coverage
}

// Materialize loads and normalizes the registry and every transaction
// dataset for the period, restricts them to known recipients and builds the
// aggregation tables. Any dataset failure aborts the run before side
// effects.
func (p *Pipeline) Materialize() (*Materialized, error) {
	rows, err := p.source.Load(dataset.RegistryName, p.period)
	if err != nil {
		return nil, err
	}
	recipients, err := p.normalizer.NormalizeRecipients(rows)
	if err != nil {
		return nil, err
	}
	registry := models.NewRegistry(recipients)
	p.logger.Info("Recipient registry materialized",
		logging.F("recipients", registry.Len()))

	byKind := make(map[models.Kind][]models.TransactionRecord, len(models.TransactionKinds))
	coverage := make([]reconcile.Coverage, 0, len(models.TransactionKinds))
	for _, kind := range models.TransactionKinds {
		rows, err := p.source.Load(string(kind), p.period)
		if err != nil {
			return nil, err
		}
		records, err := p.normalizer.NormalizeTransactions(kind, rows)
		if err != nil {
			return nil, err
		}
		surviving, cov := p.reconciler.Restrict(registry, kind, records)
		byKind[kind] = surviving
		coverage = append(coverage, cov)
	}

	return &Materialized{
		Registry: registry,
		Tables:   p.engine.Build(byKind),
		Coverage: coverage,
	}, nil
}

// Generate runs the generation pass for one document kind: every recipient
// with data for the document's primary dataset and no prior success is
// rendered and stored, and every terminal outcome is recorded.
func (p *Pipeline) Generate(ctx context.Context, doc models.DocumentKind, mat *Materialized) (report.PassReport, error) {
	work := models.GenerationWork(doc)
	universe := mat.Tables.RecipientsWithData(doc.PrimaryKind())
	pending := p.ledger.Pending(work, universe)

	rep := report.PassReport{WorkKind: string(work), Pending: len(pending)}
	p.logger.Info("Generation pass starting",
		logging.F("work_kind", work),
		logging.F("universe", len(universe)),
		logging.F("pending", len(pending)))
	if len(pending) == 0 {
		return rep, nil
	}

	pool := fanout.NewPool(p.cfg.Run.Workers, p.logger)
	results := pool.Run(ctx, pending, func(ctx context.Context, storeID string) error {
		recipient, ok := mat.Registry.Get(storeID)
		if !ok {
			return fmt.Errorf("recipient %s not in registry", storeID)
		}
		statement, ok := p.engine.AssembleStatement(mat.Tables, recipient, doc, p.period)
		if !ok {
			return fmt.Errorf("no %s data for recipient %s", doc.PrimaryKind(), storeID)
		}

		texts := p.texts[doc]
		data := render.NewStatementData(statement,
			texts.AdditionalInfo, texts.ImportantNote,
			strings.Join(texts.ActiveCampaigns, "\n"))
		key := render.DestinationKey(doc, p.period, storeID)
		return p.renderer.RenderAndStore(ctx, render.TemplateFor(doc), data, key)
	})

	for _, result := range results {
		outcome := ledger.OutcomeSuccess
		if result.Err != nil {
			outcome = ledger.OutcomeFailure
			rep.Failed++
			p.logger.WithError(result.Err).Error("Document generation failed",
				logging.F("store_id", result.StoreID),
				logging.F("work_kind", work))
		} else {
			rep.Succeeded++
		}
		key := render.DestinationKey(doc, p.period, result.StoreID)
		if err := p.ledger.Append(result.StoreID, work, outcome, key); err != nil {
			return rep, fmt.Errorf("error recording %s outcome for %s: %w", work, result.StoreID, err)
		}
	}

	p.logger.Info("Generation pass finished",
		logging.F("work_kind", work),
		logging.F("succeeded", rep.Succeeded),
		logging.F("failed", rep.Failed))
	return rep, nil
}

// Deliver runs the delivery pass: one message per recipient carrying every
// document generated for the period. A recipient qualifies once any
// generation for the period has succeeded; recipients without an email
// address are skipped without a ledger record so a later registry fix picks
// them up.
func (p *Pipeline) Deliver(ctx context.Context, mat *Materialized) (report.PassReport, error) {
	universe := p.deliveryUniverse(mat.Registry)
	pending := p.ledger.Pending(models.WorkDelivery, universe)

	rep := report.PassReport{WorkKind: string(models.WorkDelivery), Pending: len(pending)}

	deliverable := make([]string, 0, len(pending))
	for _, storeID := range pending {
		recipient, ok := mat.Registry.Get(storeID)
		if !ok || !recipient.HasEmail() {
			rep.Skipped++
			p.logger.Warn("Skipping delivery: recipient has no email address",
				logging.F("store_id", storeID))
			continue
		}
		if stored, err := p.hasStoredDocuments(ctx, storeID); err == nil && !stored {
			// The ledger says generation succeeded but storage no longer
			// holds any document. Skip without a record so regeneration
			// makes the recipient deliverable again.
			rep.Skipped++
			p.logger.Warn("Skipping delivery: no stored documents for recipient",
				logging.F("store_id", storeID))
			continue
		}
		deliverable = append(deliverable, storeID)
	}

	p.logger.Info("Delivery pass starting",
		logging.F("universe", len(universe)),
		logging.F("pending", len(pending)),
		logging.F("skipped", rep.Skipped))
	if len(deliverable) == 0 {
		return rep, nil
	}

	subject := expandPlaceholders(p.cfg.Mail.Subject, p.period)
	body := expandPlaceholders(p.cfg.Mail.Body, p.period)

	pool := fanout.NewPool(p.cfg.Run.Workers, p.logger)
	results := pool.Run(ctx, deliverable, func(ctx context.Context, storeID string) error {
		recipient, _ := mat.Registry.Get(storeID)
		attachments, err := p.stageDocuments(ctx, storeID)
		if err != nil {
			return err
		}
		if len(attachments) == 0 {
			return fmt.Errorf("no stored documents for recipient %s", storeID)
		}
		return p.sender.Send(ctx, transport.Message{
			From:        p.cfg.Mail.From,
			To:          recipient.Email,
			Subject:     subject,
			Body:        body,
			Attachments: attachments,
		})
	})

	for _, result := range results {
		recipient, _ := mat.Registry.Get(result.StoreID)
		outcome := ledger.OutcomeSuccess
		if result.Err != nil {
			outcome = ledger.OutcomeFailure
			rep.Failed++
			p.logger.WithError(result.Err).Error("Delivery failed",
				logging.F("store_id", result.StoreID))
		} else {
			rep.Succeeded++
		}
		if err := p.ledger.Append(result.StoreID, models.WorkDelivery, outcome, recipient.Email); err != nil {
			return rep, fmt.Errorf("error recording delivery outcome for %s: %w", result.StoreID, err)
		}
	}

	p.logger.Info("Delivery pass finished",
		logging.F("succeeded", rep.Succeeded),
		logging.F("failed", rep.Failed),
		logging.F("skipped", rep.Skipped))
	return rep, nil
}

// deliveryUniverse is every registry recipient with at least one successful
// document generation recorded for the period.
func (p *Pipeline) deliveryUniverse(registry *models.Registry) []string {
	generated := make(map[string]bool)
	for _, doc := range models.DocumentKinds {
		for storeID := range p.ledger.Succeeded(models.GenerationWork(doc)) {
			if registry.Contains(storeID) {
				generated[storeID] = true
			}
		}
	}

	universe := make([]string, 0, len(generated))
	for storeID := range generated {
		universe = append(universe, storeID)
	}
	sort.Strings(universe)
	return universe
}

// hasStoredDocuments reports whether storage holds at least one document of
// any kind for the recipient. A storage error is returned so the caller can
// leave the recipient dispatched and let the unit surface it.
func (p *Pipeline) hasStoredDocuments(ctx context.Context, storeID string) (bool, error) {
	for _, doc := range models.DocumentKinds {
		exists, err := p.storage.Exists(ctx, render.DestinationKey(doc, p.period, storeID))
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// stageDocuments copies every stored document of the recipient into the
// staging directory and returns the local paths, one attachment per
// document kind that was generated.
func (p *Pipeline) stageDocuments(ctx context.Context, storeID string) ([]string, error) {
	stagingDir := filepath.Join(p.cfg.Data.StagingDir, storeID)
	var attachments []string
	for _, doc := range models.DocumentKinds {
		key := render.DestinationKey(doc, p.period, storeID)
		exists, err := p.storage.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("error checking document %s: %w", key, err)
		}
		if !exists {
			continue
		}

		content, err := p.storage.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("error retrieving document %s: %w", key, err)
		}
		if err := fileutils.EnsureDirectoryExists(stagingDir); err != nil {
			return nil, err
		}
		local := filepath.Join(stagingDir, fmt.Sprintf("%s_%s.pdf", doc.Prefix(), p.period.Key()))
		if err := fileutils.WriteFileAtomic(local, content, 0o644); err != nil {
			return nil, fmt.Errorf("error staging document %s: %w", key, err)
		}
		attachments = append(attachments, local)
	}
	return attachments, nil
}

// RunResult is what one full execution produced.
type RunResult struct {
	Period      models.Period
	Summary     report.RunSummary
	SummaryPath string
}

// Run executes the enabled passes in order: generation per document kind,
// then delivery. The run summary is persisted even when some units failed;
// a rerun retries only what never succeeded.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	p.logger.Info("Statement run starting",
		logging.F("period", p.period.Text()),
		logging.F("workers", p.cfg.Run.Workers))

	mat, err := p.Materialize()
	if err != nil {
		return nil, err
	}

	var passes []report.PassReport
	for _, doc := range models.DocumentKinds {
		if !p.cfg.GenerationEnabled(doc) {
			p.logger.Info("Generation disabled for document kind",
				logging.F("document", doc))
			continue
		}
		rep, err := p.Generate(ctx, doc, mat)
		if err != nil {
			return nil, err
		}
		passes = append(passes, rep)
	}

	if p.cfg.Run.Deliver {
		rep, err := p.Deliver(ctx, mat)
		if err != nil {
			return nil, err
		}
		passes = append(passes, rep)
	}

	summary := report.RunSummary{
		Period:     p.period.Text(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Recipients: mat.Registry.Len(),
		Passes:     passes,
	}
	writer := report.NewWriter(p.cfg.Data.StateDir, p.logger)
	path, err := writer.Write(p.period, summary)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Statement run finished",
		logging.F("period", p.period.Text()),
		logging.F("duration", time.Since(started).Round(time.Millisecond)))
	return &RunResult{Period: p.period, Summary: summary, SummaryPath: path}, nil
}

// expandPlaceholders substitutes the {MES} and {ANIO} markers used by the
// configurable subject and body texts.
func expandPlaceholders(text string, period models.Period) string {
	replacer := strings.NewReplacer(
		"{MES}", period.MonthName(),
		"{ANIO}", strconv.Itoa(period.Year),
	)
	return replacer.Replace(text)
}
