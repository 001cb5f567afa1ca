package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/civitech/bikesystem-backend/internal/middleware"
	"github.com/civitech/bikesystem-backend/internal/pagination"
	"github.com/civitech/bikesystem-backend/station"
)

type stationResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Capacity  int     `json:"capacity"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Active    bool    `json:"active"`
	NumBikes  int     `json:"num_bikes"`
}

func toStationResponse(s station.Station) stationResponse {
	return stationResponse{
		ID:        s.ID,
		Name:      s.Name,
		Capacity:  s.Capacity,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Active:    s.Active,
		NumBikes:  s.NumBikes,
	}
}

func toStationResponses(stations []station.Station) []stationResponse {
	out := make([]stationResponse, 0, len(stations))
	for _, s := range stations {
		out = append(out, toStationResponse(s))
	}
	return out
}

func (a *API) getStationsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	page, ok := pageParam(c)
	if !ok {
		return
	}

	stations, err := a.sr.GetStations(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list stations", "error", err)
		unprocessable(c)
		return
	}

	current, err := pagination.Page(stations, page)
	if err != nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"stations":           toStationResponses(current),
		"total_num_stations": len(stations),
		"page":               page,
	})
}

type createStationRequest struct {
	Name      *string  `json:"name" binding:"required"`
	Capacity  *int     `json:"capacity" binding:"required,gt=0"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (a *API) createStationHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	page, ok := pageParam(c)
	if !ok {
		return
	}

	var req createStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c)
		return
	}

	created, err := a.sr.CreateStation(c, station.Station{
		Name:      *req.Name,
		Capacity:  *req.Capacity,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		logger.ErrorContext(c, "failed to create station", "error", err)
		unprocessable(c)
		return
	}

	stations, err := a.sr.GetStations(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list stations", "error", err)
		unprocessable(c)
		return
	}

	current, err := pagination.Page(stations, page)
	if err != nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"created_station_id": created.ID,
		"stations":           toStationResponses(current),
		"total_num_stations": len(stations),
		"page":               page,
	})
}

func (a *API) updateStationHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, ok := idParam(c)
	if !ok {
		return
	}

	var patch station.Patch
	if err := json.NewDecoder(c.Request.Body).Decode(&patch); err != nil {
		unprocessable(c)
		return
	}
	if patch.Capacity != nil && *patch.Capacity <= 0 {
		unprocessable(c)
		return
	}

	updated, err := a.sr.UpdateStation(c, id, patch)
	if err != nil {
		if errors.Is(err, station.ErrNotFound) {
			notFound(c)
			return
		}
		logger.ErrorContext(c, "failed to update station", "error", err)
		unprocessable(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"station_updated": toStationResponse(updated),
	})
}

func (a *API) deleteStationHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, ok := idParam(c)
	if !ok {
		return
	}

	page, ok := pageParam(c)
	if !ok {
		return
	}

	if err := a.sr.DeleteStation(c, id); err != nil {
		switch {
		case errors.Is(err, station.ErrNotFound):
			notFound(c)
		case errors.Is(err, station.ErrInUse):
			badRequest(c)
		default:
			logger.ErrorContext(c, "failed to delete station", "error", err)
			internalError(c)
		}
		return
	}

	stations, err := a.sr.GetStations(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list stations", "error", err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"deleted_station_id": id,
		"stations":           toStationResponses(pageOrEmpty(stations, page)),
		"total_num_stations": len(stations),
		"page":               page,
	})
}
