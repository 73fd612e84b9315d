package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"paperdeck/internal/domain"
	"paperdeck/internal/materialize"
	"paperdeck/internal/objectstore"
	"paperdeck/internal/pipeline"
	"paperdeck/internal/pkg/pdfextract"
)

// ExtractFunc reads the text layer of a PDF on disk.
type ExtractFunc func(path string) (*pdfextract.Document, error)

type ProcessorConfig struct {
	Store        objectstore.Store
	Stages       []pipeline.Stage
	Retry        pipeline.RetryPolicy
	Materializer ArtifactMaterializer
	Repo         SummaryRepository
	Cache        SummaryCache
	Extract      ExtractFunc
	OutputDir    string
	FetchTimeout time.Duration
	Logger       zerolog.Logger
}

// Processor drives a single document from fetch to cleanup. It holds no
// per-document state and is safe for concurrent use.
type Processor struct {
	cfg ProcessorConfig
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Extract == nil {
		cfg.Extract = pdfextract.ExtractFile
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = pipeline.NoRetry()
	}
	return &Processor{cfg: cfg}
}

// Process runs doc through every stage and removes its working files no
// matter how it ends.
func (p *Processor) Process(ctx context.Context, doc Document) *Outcome {
	log := p.cfg.Logger.With().Str("document", doc.Title).Logger()
	outcome := &Outcome{Document: doc, State: StateDiscovered}

	fail := func(state State, err error) *Outcome {
		outcome.State = StateFailed
		outcome.FailedAt = state
		outcome.Err = err
		log.Error().Err(err).Str("state", string(state)).Msg("document failed")
		p.cleanup(log, doc.Title)
		return outcome
	}

	outcome.State = StateFetching
	log.Info().Str("state", string(outcome.State)).Str("key", doc.SourceKey).Msg("fetching source")
	pdfPath, err := p.fetch(ctx, doc)
	if err != nil {
		return fail(StateFetching, err)
	}

	outcome.State = StateExtracting
	text, err := p.extract(log, pdfPath, doc.Title)
	if err != nil {
		return fail(StateExtracting, err)
	}

	outcome.State = StatePipelineRunning
	log.Info().Str("state", string(outcome.State)).Int("stages", len(p.cfg.Stages)).Msg("running stages")
	result, err := pipeline.Run(ctx, p.cfg.Stages, text,
		pipeline.WithRetry(p.cfg.Retry),
		pipeline.WithLogger(log),
	)
	if err != nil {
		return fail(StatePipelineRunning, err)
	}
	markup := result.Output()

	outcome.State = StateMaterializing
	artifact, err := p.cfg.Materializer.Materialize(ctx, markup, doc.Title)
	if err != nil {
		return fail(StateMaterializing, err)
	}
	outcome.URL = artifact.PublicURL

	outcome.State = StatePersisting
	if _, err := p.cfg.Repo.Upsert(ctx, doc.Title, artifact.PublicURL, markup); err != nil {
		return fail(StatePersisting, domain.PersistError(fmt.Sprintf("save %s", doc.Title), err))
	}
	if p.cfg.Cache != nil {
		if err := p.cfg.Cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("invalidate summary cache failed")
		}
	}

	p.cleanup(log, doc.Title)
	outcome.State = StateCleanedUp
	log.Info().Str("state", string(outcome.State)).Str("url", outcome.URL).Msg("document published")
	return outcome
}

func (p *Processor) fetch(ctx context.Context, doc Document) (string, error) {
	fetchCtx := ctx
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}

	data, err := p.cfg.Store.Get(fetchCtx, doc.SourceKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			return "", domain.NotFound(fmt.Sprintf("source %s", doc.SourceKey), err)
		}
		return "", domain.FetchError(fmt.Sprintf("download %s", doc.SourceKey), err)
	}

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return "", domain.IOError("create output dir", err)
	}
	pdfPath := filepath.Join(p.cfg.OutputDir, doc.Title+".pdf")
	if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
		return "", domain.IOError(fmt.Sprintf("write %s", pdfPath), err)
	}
	return pdfPath, nil
}

func (p *Processor) extract(log zerolog.Logger, pdfPath, title string) (string, error) {
	doc, err := p.cfg.Extract(pdfPath)
	if err != nil {
		return "", domain.ExtractError(fmt.Sprintf("extract %s", pdfPath), err)
	}
	if doc.IsBlank() {
		return "", domain.ExtractError(fmt.Sprintf("%s has no extractable text", pdfPath), nil)
	}
	log.Info().Int("pages", doc.Pages).Int("chars", len(doc.Text)).Msg("text extracted")

	txtPath := filepath.Join(p.cfg.OutputDir, title+".txt")
	if err := os.WriteFile(txtPath, []byte(doc.Text), 0o644); err != nil {
		return "", domain.IOError(fmt.Sprintf("write %s", txtPath), err)
	}
	return doc.Text, nil
}

func (p *Processor) cleanup(log zerolog.Logger, title string) {
	for _, path := range materialize.LocalFiles(p.cfg.OutputDir, title) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("remove working file failed")
		}
	}
}
