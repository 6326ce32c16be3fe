package calculator

import (
	"context"
	"fmt"
	"strings"

	"calc-backend/internal/images"
)

// Service resolves stored images and runs them through the Analyzer.
type Service struct {
	Images   images.Repo
	Analyzer *Analyzer
}

// Calculate analyzes the stored image imageID. Non-nil vars, even empty, take
// precedence over the variables stored with the record.
func (s *Service) Calculate(ctx context.Context, imageID string, vars images.Vars) (Result, error) {
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return nil, ErrImageIDRequired
	}

	rec, err := s.Images.GetByID(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	resolved := vars
	if resolved == nil {
		resolved = rec.DictOfVars
	}
	return s.Analyzer.Analyze(ctx, rec.Image, resolved)
}
