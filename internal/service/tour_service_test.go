package service

import (
	"context"
	"testing"

	"tour_booking/internal/apperror"
	"tour_booking/internal/model"
	"tour_booking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTours struct {
	repository.TourRepository

	created    *model.Tour
	byID       map[int64]*model.Tour
	updated    []model.UpdateTourRequest
	withinArgs []float64
	distArgs   []float64
}

func (f *fakeTours) Create(_ context.Context, tour *model.Tour) error {
	tour.ID = 1
	f.created = tour
	return nil
}

func (f *fakeTours) FindByID(_ context.Context, id int64) (*model.Tour, error) {
	return f.byID[id], nil
}

func (f *fakeTours) Update(_ context.Context, id int64, req model.UpdateTourRequest) (*model.Tour, error) {
	f.updated = append(f.updated, req)
	return f.byID[id], nil
}

func (f *fakeTours) FindWithin(_ context.Context, lat, lng, radiusKm float64) ([]model.Tour, error) {
	f.withinArgs = []float64{lat, lng, radiusKm}
	return nil, nil
}

func (f *fakeTours) Distances(_ context.Context, lat, lng, multiplier float64) ([]model.TourDistance, error) {
	f.distArgs = []float64{lat, lng, multiplier}
	return nil, nil
}

func TestTourCreate_DiscountMustBeBelowPrice(t *testing.T) {
	svc := NewTourService(&fakeTours{}, newFakeReviews())

	discount := 600.0
	_, err := svc.Create(context.Background(), model.CreateTourRequest{
		Name: "The Forest Hiker", Duration: 5, MaxGroupSize: 25,
		Difficulty: model.DifficultyEasy, Price: 500, PriceDiscount: &discount,
		Summary: "A lovely walk",
	})

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
}

func TestTourUpdate_InvalidDiscountIsNeverPersisted(t *testing.T) {
	tours := &fakeTours{byID: map[int64]*model.Tour{
		7: {ID: 7, Name: "The Forest Hiker", Price: 500},
	}}
	svc := NewTourService(tours, newFakeReviews())

	discount := 600.0
	_, err := svc.Update(context.Background(), 7, model.UpdateTourRequest{PriceDiscount: &discount})

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Empty(t, tours.updated, "rejected discount must not reach the repository")
}

func TestTourUpdate_DiscountCheckedAgainstNewPrice(t *testing.T) {
	discount := 400.0
	tours := &fakeTours{byID: map[int64]*model.Tour{
		7: {ID: 7, Name: "The Forest Hiker", Price: 500, PriceDiscount: &discount},
	}}
	svc := NewTourService(tours, newFakeReviews())

	// Dropping the price below the stored discount is just as invalid
	newPrice := 300.0
	_, err := svc.Update(context.Background(), 7, model.UpdateTourRequest{Price: &newPrice})

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Empty(t, tours.updated)

	// A price that keeps the discount below it goes through
	okPrice := 450.0
	_, err = svc.Update(context.Background(), 7, model.UpdateTourRequest{Price: &okPrice})
	require.NoError(t, err)
	assert.Len(t, tours.updated, 1)
}

func TestTourWithin_ConvertsMilesToKilometers(t *testing.T) {
	tours := &fakeTours{}
	svc := NewTourService(tours, newFakeReviews())

	_, err := svc.Within(context.Background(), "100", "34.1,-118.1", "mi")

	require.NoError(t, err)
	require.Len(t, tours.withinArgs, 3)
	assert.InDelta(t, 34.1, tours.withinArgs[0], 1e-9)
	assert.InDelta(t, -118.1, tours.withinArgs[1], 1e-9)
	assert.InDelta(t, 160.9344, tours.withinArgs[2], 1e-4)
}

func TestTourWithin_BadLatLng(t *testing.T) {
	svc := NewTourService(&fakeTours{}, newFakeReviews())

	_, err := svc.Within(context.Background(), "100", "not-coordinates", "km")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
}

func TestTourDistances_UnitMultiplier(t *testing.T) {
	tours := &fakeTours{}
	svc := NewTourService(tours, newFakeReviews())

	_, err := svc.Distances(context.Background(), "34.1,-118.1", "mi")
	require.NoError(t, err)
	assert.InDelta(t, 0.621371, tours.distArgs[2], 1e-9)

	_, err = svc.Distances(context.Background(), "34.1,-118.1", "km")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, tours.distArgs[2], 1e-9)
}
