package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"calc-backend/internal/shared/telemetry"
	"calc-backend/internal/shared/util"
)

// Service contains the ingestion and lookup logic for image records.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// Ingest validates in, normalizes it to canonical base64 and stores a new
// record with an empty variable mapping.
func (s *Service) Ingest(ctx context.Context, in Input) (ImageRecord, error) {
	if in == nil {
		return ImageRecord{}, ErrNoImage
	}
	data, err := in.decode()
	if err != nil {
		return ImageRecord{}, err
	}
	if len(data) == 0 {
		return ImageRecord{}, ErrEmptyImage
	}

	rec := ImageRecord{
		ID:         uuid.NewString(),
		Image:      base64.StdEncoding.EncodeToString(data),
		DictOfVars: Vars{},
		CreatedAt:  s.now(),
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return ImageRecord{}, fmt.Errorf("store image: %w", err)
	}
	telemetry.Info("image.ingested", map[string]any{
		"image_id": rec.ID,
		"bytes":    len(data),
		"sha256":   util.ContentHash(data),
	})
	return rec, nil
}

// Get returns the record with the given id.
func (s *Service) Get(ctx context.Context, id string) (ImageRecord, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
