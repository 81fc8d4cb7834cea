package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roamwyth/internal/mocks"
	"roamwyth/internal/models"
	"roamwyth/internal/repositories"
	"roamwyth/internal/services"
)

func TestWanderlistAdd(t *testing.T) {
	me := uuid.New()
	wanderlist := new(mocks.MockWanderlistRepository)
	handler := NewWanderlistHandler(wanderlist, new(mocks.MockRecommendationRepository), nil)
	router := newTestRouter()
	router.POST("/wanderlist", asUser(me), handler.Add)

	wanderlist.On("Create", mock.Anything, mock.MatchedBy(func(item *models.WanderlistItem) bool {
		return item.City == "Kyoto"
	})).Return(&models.WanderlistItem{ID: uuid.New(), UserID: me, City: "Kyoto"}, nil).Once()
	wanderlist.On("Create", mock.Anything, mock.MatchedBy(func(item *models.WanderlistItem) bool {
		return item.City == "Lima"
	})).Return(nil, repositories.ErrDuplicate).Once()

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/wanderlist", `{"city":" Kyoto ","country":"Japan"}`).Code)
	require.Equal(t, http.StatusConflict, doJSON(router, http.MethodPost, "/wanderlist", `{"city":"Lima"}`).Code)
	require.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodPost, "/wanderlist", `{"city":"  "}`).Code)
}

func TestAddRecommendationRequiresTripMembership(t *testing.T) {
	me := uuid.New()
	trips := new(mocks.MockTripRepository)
	recs := new(mocks.MockRecommendationRepository)
	tripSvc := services.NewTripService(trips, nil, nil, nil, nil)
	handler := NewWanderlistHandler(new(mocks.MockWanderlistRepository), recs, tripSvc)
	router := newTestRouter()
	router.POST("/recommendations", asUser(me), handler.AddRecommendation)

	tripID := uuid.New()
	trips.On("GetByID", mock.Anything, tripID).Return(&models.Trip{ID: tripID, OwnerID: uuid.New()}, nil)

	rec := doJSON(router, http.MethodPost, "/recommendations", `{"name":"Pasteis de Belem","trip_id":"`+tripID.String()+`"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	recs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	rec = doJSON(router, http.MethodPost, "/recommendations", `{"name":"Belem","category":"museum"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
