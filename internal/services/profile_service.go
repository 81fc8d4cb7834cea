package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/repositories"
)

const (
	minSearchLength = 2
	maxSearchResult = 20
)

type ProfileService struct {
	profiles repositories.ProfileRepository
}

func NewProfileService(profiles repositories.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// Search matches username or full name prefixes. Store errors are returned
// rather than masked as an empty result.
func (s *ProfileService) Search(ctx context.Context, query string) ([]models.Profile, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchLength {
		return nil, newError(ErrBadRequest, "query must be at least %d characters", minSearchLength)
	}
	results, err := s.profiles.Search(ctx, query, maxSearchResult)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	return results, nil
}
