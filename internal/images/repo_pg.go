package images

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new image record.
func (r *PGRepo) Create(ctx context.Context, rec ImageRecord) error {
	const query = `
INSERT INTO images (id, image, dict_of_vars, created_at)
VALUES ($1, $2, $3, $4)`

	vars := rec.DictOfVars
	if vars == nil {
		vars = Vars{}
	}
	payload, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("marshal dict_of_vars: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, query, rec.ID, rec.Image, string(payload), rec.CreatedAt)
	return err
}

// GetByID fetches a record by id. Ids that are not UUIDs cannot exist and report ErrNotFound.
func (r *PGRepo) GetByID(ctx context.Context, id string) (ImageRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ImageRecord{}, ErrNotFound
	}

	const query = `
SELECT id, image, dict_of_vars, created_at
FROM images
WHERE id = $1`

	var rec ImageRecord
	var rawVars []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Image, &rawVars, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ImageRecord{}, ErrNotFound
		}
		return ImageRecord{}, err
	}

	rec.DictOfVars = Vars{}
	if len(rawVars) > 0 {
		dec := json.NewDecoder(bytes.NewReader(rawVars))
		dec.UseNumber()
		if err := dec.Decode(&rec.DictOfVars); err != nil {
			return ImageRecord{}, fmt.Errorf("decode dict_of_vars: %w", err)
		}
		if rec.DictOfVars == nil {
			rec.DictOfVars = Vars{}
		}
	}
	return rec, nil
}

var _ Repo = (*PGRepo)(nil)
