package images

import "context"

// Repo persists image records. Records are append-only: created once by
// ingestion and read by analysis.
type Repo interface {
	Create(ctx context.Context, rec ImageRecord) error
	GetByID(ctx context.Context, id string) (ImageRecord, error)
}
