package app

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"paperdeck/internal/domain"
	"paperdeck/internal/gate"
	"paperdeck/internal/objectstore"
	"paperdeck/internal/platform/rabbitmq"
)

// BatchService publishes every unprocessed PDF in the download folder, one
// document at a time.
type BatchService struct {
	store          objectstore.Store
	gate           *gate.Gate
	processor      *Processor
	publisher      JobPublisher
	downloadFolder string
	sourceExt      string
	logger         zerolog.Logger
}

func NewBatchService(
	store objectstore.Store,
	g *gate.Gate,
	processor *Processor,
	publisher JobPublisher,
	downloadFolder string,
	sourceExt string,
	logger zerolog.Logger,
) *BatchService {
	return &BatchService{
		store:          store,
		gate:           g,
		processor:      processor,
		publisher:      publisher,
		downloadFolder: downloadFolder,
		sourceExt:      sourceExt,
		logger:         logger,
	}
}

func (s *BatchService) prefix() string {
	return strings.Trim(s.downloadFolder, "/") + "/"
}

// Discover lists source documents in listing order, skipping folder markers
// and files with another extension.
func (s *BatchService) Discover(ctx context.Context) ([]Document, error) {
	prefix := s.prefix()
	keys, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, domain.FetchError(fmt.Sprintf("list %s", prefix), err)
	}

	docs := make([]Document, 0, len(keys))
	for _, key := range keys {
		if !objectstore.IsObjectKey(key, prefix) {
			continue
		}
		if !strings.EqualFold(path.Ext(key), s.sourceExt) {
			continue
		}
		docs = append(docs, DocumentFromKey(key))
	}
	return docs, nil
}

// Run processes every pending document. Only a listing failure aborts the
// batch; per-document failures are reported in the BatchReport.
func (s *BatchService) Run(ctx context.Context) (*BatchReport, error) {
	docs, err := s.Discover(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("documents", len(docs)).Msg("batch started")

	report := &BatchReport{Outcomes: make([]Outcome, 0, len(docs))}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			s.logger.Warn().Err(err).Msg("batch interrupted")
			return report, err
		}
		report.Outcomes = append(report.Outcomes, *s.handle(ctx, doc, false))
	}

	s.logger.Info().
		Int("processed", report.Processed()).
		Int("skipped", report.Skipped()).
		Int("failed", report.Failed()).
		Msg("batch finished")
	return report, nil
}

// Enqueue publishes a process job for each pending document instead of
// processing inline.
func (s *BatchService) Enqueue(ctx context.Context) (int, error) {
	if s.publisher == nil {
		return 0, ErrQueueDisabled
	}
	docs, err := s.Discover(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, doc := range docs {
		pending, err := s.gate.ShouldProcess(ctx, doc.Title)
		if err != nil {
			return queued, err
		}
		if !pending {
			continue
		}
		if err := s.publisher.Publish(ctx, rabbitmq.ProcessJob{Key: doc.SourceKey}); err != nil {
			return queued, fmt.Errorf("enqueue %s failed: %w", doc.Title, err)
		}
		queued++
	}
	s.logger.Info().Int("queued", queued).Int("documents", len(docs)).Msg("batch enqueued")
	return queued, nil
}

// ProcessKey handles one source object the way Run would. With force the
// already-processed check is skipped.
func (s *BatchService) ProcessKey(ctx context.Context, key string, force bool) (*Outcome, error) {
	outcome := s.handle(ctx, DocumentFromKey(key), force)
	return outcome, outcome.Err
}

func (s *BatchService) handle(ctx context.Context, doc Document, force bool) *Outcome {
	log := s.logger.With().Str("document", doc.Title).Logger()

	release, ok, err := s.gate.Claim(ctx, doc.Title)
	if err != nil {
		log.Error().Err(err).Msg("claim failed")
		return &Outcome{Document: doc, State: StateFailed, FailedAt: StateDiscovered, Err: err}
	}
	if !ok {
		log.Info().Msg("document claimed elsewhere, skipping")
		return &Outcome{Document: doc, State: StateSkipped}
	}
	defer release()

	if !force {
		pending, err := s.gate.ShouldProcess(ctx, doc.Title)
		if err != nil {
			log.Error().Err(err).Msg("processed check failed")
			return &Outcome{Document: doc, State: StateFailed, FailedAt: StateDiscovered, Err: err}
		}
		if !pending {
			log.Info().Msg("already processed, skipping")
			return &Outcome{Document: doc, State: StateSkipped}
		}
	}

	return s.processor.Process(ctx, doc)
}
