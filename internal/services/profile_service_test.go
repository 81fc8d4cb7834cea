package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roamwyth/internal/mocks"
	"roamwyth/internal/models"
)

func TestProfileGetNotFound(t *testing.T) {
	profiles := new(mocks.MockProfileRepository)
	id := uuid.New()
	profiles.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	_, err := NewProfileService(profiles).Get(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProfileSearch(t *testing.T) {
	profiles := new(mocks.MockProfileRepository)
	svc := NewProfileService(profiles)

	_, err := svc.Search(context.Background(), " a ")
	require.ErrorIs(t, err, ErrBadRequest)
	profiles.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)

	profiles.On("Search", mock.Anything, "an", maxSearchResult).Return([]models.Profile{{Username: "ana"}}, nil).Once()
	got, err := svc.Search(context.Background(), "an")
	require.NoError(t, err)
	require.Len(t, got, 1)

	boom := errors.New("connection reset")
	profiles.On("Search", mock.Anything, "be", maxSearchResult).Return(nil, boom).Once()
	_, err = svc.Search(context.Background(), "be")
	require.ErrorIs(t, err, boom)
}
