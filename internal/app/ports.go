package app

import (
	"context"

	"paperdeck/internal/materialize"
	"paperdeck/internal/model"
	"paperdeck/internal/platform/rabbitmq"
)

type SummaryRepository interface {
	FindByTitle(ctx context.Context, title string) (*model.SummaryPage, error)
	GetByID(ctx context.Context, id string) (*model.SummaryPage, error)
	List(ctx context.Context) ([]model.SummaryPage, error)
	Upsert(ctx context.Context, title, url, summary string) (*model.SummaryPage, error)
}

// SummaryCache stores the listing under a generation that Invalidate bumps,
// so a listing read before an upsert is never written back after it.
type SummaryCache interface {
	GetList(ctx context.Context) (pages []model.SummaryPage, generation int64, hit bool, err error)
	SetList(ctx context.Context, pages []model.SummaryPage, generation int64) error
	Invalidate(ctx context.Context) error
}

type JobPublisher interface {
	Publish(ctx context.Context, job rabbitmq.ProcessJob) error
}

type ArtifactMaterializer interface {
	Materialize(ctx context.Context, markup, documentName string) (*materialize.Artifact, error)
}
