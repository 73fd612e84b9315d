package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"paperdeck/internal/gate"
	"paperdeck/internal/objectstore"
	"paperdeck/internal/platform/rabbitmq"
)

// ProcessService handles a single named document on request.
type ProcessService struct {
	gate           *gate.Gate
	processor      *Processor
	repo           SummaryRepository
	publisher      JobPublisher
	downloadFolder string
	sourceExt      string
	skipProcessed  bool
	logger         zerolog.Logger
}

func NewProcessService(
	g *gate.Gate,
	processor *Processor,
	repo SummaryRepository,
	publisher JobPublisher,
	downloadFolder string,
	sourceExt string,
	skipProcessed bool,
	logger zerolog.Logger,
) *ProcessService {
	return &ProcessService{
		gate:           g,
		processor:      processor,
		repo:           repo,
		publisher:      publisher,
		downloadFolder: downloadFolder,
		sourceExt:      sourceExt,
		skipProcessed:  skipProcessed,
		logger:         logger,
	}
}

func (s *ProcessService) resolve(documentName string) (Document, error) {
	fileName := normalizeDocumentName(documentName, s.sourceExt)
	if fileName == "" {
		return Document{}, ErrMissingDocumentName
	}
	return DocumentFromKey(objectstore.Join(s.downloadFolder, fileName)), nil
}

// Process regenerates the deck for documentName and returns its outcome. An
// already-processed document is regenerated unless skipProcessed is set.
func (s *ProcessService) Process(ctx context.Context, documentName string) (*Outcome, error) {
	doc, err := s.resolve(documentName)
	if err != nil {
		return nil, err
	}
	log := s.logger.With().Str("document", doc.Title).Logger()

	release, ok, err := s.gate.Claim(ctx, doc.Title)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	defer release()

	if s.skipProcessed {
		existing, err := s.repo.FindByTitle(ctx, doc.Title)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			log.Info().Str("url", existing.URL).Msg("already processed, returning stored deck")
			return &Outcome{Document: doc, State: StateSkipped, URL: existing.URL}, nil
		}
	}

	outcome := s.processor.Process(ctx, doc)
	return outcome, outcome.Err
}

// Enqueue hands documentName to the worker queue and returns the resolved
// file name.
func (s *ProcessService) Enqueue(ctx context.Context, documentName string) (string, error) {
	doc, err := s.resolve(documentName)
	if err != nil {
		return "", err
	}
	if s.publisher == nil {
		return "", ErrQueueDisabled
	}
	job := rabbitmq.ProcessJob{Key: doc.SourceKey, Force: !s.skipProcessed}
	if err := s.publisher.Publish(ctx, job); err != nil {
		return "", fmt.Errorf("enqueue %s failed: %w", doc.Title, err)
	}
	s.logger.Info().Str("document", doc.Title).Msg("document queued")
	return doc.FileName, nil
}
