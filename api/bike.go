package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/civitech/bikesystem-backend/bike"
	"github.com/civitech/bikesystem-backend/internal/middleware"
	"github.com/civitech/bikesystem-backend/internal/pagination"
	"github.com/civitech/bikesystem-backend/station"
)

type bikeResponse struct {
	ID               int64     `json:"id"`
	Model            string    `json:"model"`
	ManufacturedAt   time.Time `json:"manufactured_at"`
	Electric         bool      `json:"electric"`
	NeedsMaintenance bool      `json:"needs_maintenance"`
	CurrentStationID *int64    `json:"current_station_id"`
	NumTrips         int       `json:"num_trips"`
}

func toBikeResponse(b bike.Bike) bikeResponse {
	return bikeResponse{
		ID:               b.ID,
		Model:            b.Model,
		ManufacturedAt:   b.ManufacturedAt,
		Electric:         b.Electric,
		NeedsMaintenance: b.NeedsMaintenance,
		CurrentStationID: b.CurrentStationID,
		NumTrips:         b.NumTrips,
	}
}

func toBikeResponses(bikes []bike.Bike) []bikeResponse {
	out := make([]bikeResponse, 0, len(bikes))
	for _, b := range bikes {
		out = append(out, toBikeResponse(b))
	}
	return out
}

func (a *API) getBikesHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	page, ok := pageParam(c)
	if !ok {
		return
	}

	bikes, err := a.br.GetBikes(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list bikes", "error", err)
		unprocessable(c)
		return
	}

	current, err := pagination.Page(bikes, page)
	if err != nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"bikes":           toBikeResponses(current),
		"total_num_bikes": len(bikes),
		"page":            page,
	})
}

type createBikeRequest struct {
	Model            *string    `json:"model" binding:"required"`
	ManufacturedAt   *time.Time `json:"manufactured_at" binding:"required"`
	Electric         *bool      `json:"electric" binding:"required"`
	CurrentStationID *int64     `json:"current_station_id" binding:"required"`
}

func (a *API) createBikeHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	page, ok := pageParam(c)
	if !ok {
		return
	}

	var req createBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c)
		return
	}

	created, err := a.br.CreateBike(c, bike.Bike{
		Model:            *req.Model,
		ManufacturedAt:   *req.ManufacturedAt,
		Electric:         *req.Electric,
		CurrentStationID: req.CurrentStationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, station.ErrNotFound):
			notFound(c)
		case errors.Is(err, station.ErrFull):
			badRequest(c)
		default:
			logger.ErrorContext(c, "failed to create bike", "error", err)
			unprocessable(c)
		}
		return
	}

	bikes, err := a.br.GetBikes(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list bikes", "error", err)
		unprocessable(c)
		return
	}

	current, err := pagination.Page(bikes, page)
	if err != nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"created_bike_id": created.ID,
		"bikes":           toBikeResponses(current),
		"total_num_bikes": len(bikes),
		"page":            page,
	})
}

func (a *API) updateBikeHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, ok := idParam(c)
	if !ok {
		return
	}

	var patch bike.Patch
	if err := json.NewDecoder(c.Request.Body).Decode(&patch); err != nil {
		unprocessable(c)
		return
	}

	updated, err := a.br.UpdateBike(c, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, bike.ErrNotFound), errors.Is(err, station.ErrNotFound):
			notFound(c)
		case errors.Is(err, station.ErrFull):
			badRequest(c)
		default:
			logger.ErrorContext(c, "failed to update bike", "error", err)
			unprocessable(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"bike_updated": toBikeResponse(updated),
	})
}

func (a *API) deleteBikeHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, ok := idParam(c)
	if !ok {
		return
	}

	page, ok := pageParam(c)
	if !ok {
		return
	}

	if err := a.br.DeleteBike(c, id); err != nil {
		if errors.Is(err, bike.ErrNotFound) {
			notFound(c)
			return
		}
		logger.ErrorContext(c, "failed to delete bike", "error", err)
		internalError(c)
		return
	}

	bikes, err := a.br.GetBikes(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list bikes", "error", err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"deleted_bike_id": id,
		"bikes":           toBikeResponses(pageOrEmpty(bikes, page)),
		"total_num_bikes": len(bikes),
		"page":            page,
	})
}
