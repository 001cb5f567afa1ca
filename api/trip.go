package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civitech/bikesystem-backend/bike"
	"github.com/civitech/bikesystem-backend/internal/middleware"
	"github.com/civitech/bikesystem-backend/internal/pagination"
	"github.com/civitech/bikesystem-backend/rider"
	"github.com/civitech/bikesystem-backend/station"
	"github.com/civitech/bikesystem-backend/trip"
)

type tripResponse struct {
	ID                   int64      `json:"id"`
	RiderID              int64      `json:"rider_id"`
	Rider                string     `json:"rider"`
	OriginationStationID int64      `json:"origination_station_id"`
	OriginationStation   string     `json:"origination_station"`
	DestinationStationID *int64     `json:"destination_station_id"`
	DestinationStation   *string    `json:"destination_station"`
	BikeID               int64      `json:"bike_id"`
	StartTime            time.Time  `json:"start_time"`
	EndTime              *time.Time `json:"end_time"`
}

func toTripResponse(t trip.Detail) tripResponse {
	resp := tripResponse{
		ID:                   t.ID,
		RiderID:              t.RiderID,
		Rider:                t.RiderName,
		OriginationStationID: t.OriginationStationID,
		OriginationStation:   t.OriginationStationName,
		BikeID:               t.BikeID,
		StartTime:            t.StartTime,
	}
	if t.DestinationStationID.Valid {
		resp.DestinationStationID = &t.DestinationStationID.Int64
	}
	if t.DestinationStationName.Valid {
		resp.DestinationStation = &t.DestinationStationName.String
	}
	if t.EndTime.Valid {
		resp.EndTime = &t.EndTime.Time
	}
	return resp
}

func (a *API) getTripsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	page, ok := pageParam(c)
	if !ok {
		return
	}

	trips, err := a.tr.GetTrips(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list trips", "error", err)
		unprocessable(c)
		return
	}

	current, err := pagination.Page(trips, page)
	if err != nil {
		notFound(c)
		return
	}

	responses := make([]tripResponse, 0, len(current))
	for _, t := range current {
		responses = append(responses, toTripResponse(t))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"trips":           responses,
		"total_num_trips": len(trips),
		"page":            page,
	})
}

type startTripRequest struct {
	RiderID *int64 `json:"rider_id" binding:"required"`
	BikeID  *int64 `json:"bike_id" binding:"required"`
}

func (a *API) startTripHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req startTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c)
		return
	}

	started, err := a.tr.StartTrip(c, *req.RiderID, *req.BikeID)
	if err != nil {
		switch {
		case errors.Is(err, bike.ErrNotFound), errors.Is(err, rider.ErrNotFound):
			notFound(c)
		case errors.Is(err, trip.ErrBikeInUse):
			badRequest(c)
		default:
			logger.ErrorContext(c, "failed to start trip", "error", err)
			unprocessable(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"started_trip": gin.H{
			"trip_id":                started.ID,
			"bike_id":                started.BikeID,
			"rider_id":               started.RiderID,
			"origination_station_id": started.OriginationStationID,
			"start_time":             started.StartTime,
		},
	})
}

type endTripRequest struct {
	DestinationStationID *int64 `json:"destination_station_id" binding:"required"`
}

func (a *API) endTripHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, ok := idParam(c)
	if !ok {
		return
	}

	var req endTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c)
		return
	}

	ended, err := a.tr.EndTrip(c, id, *req.DestinationStationID)
	if err != nil {
		switch {
		case errors.Is(err, trip.ErrNotFound), errors.Is(err, station.ErrNotFound):
			notFound(c)
		case errors.Is(err, trip.ErrEnded), errors.Is(err, station.ErrFull):
			badRequest(c)
		default:
			logger.ErrorContext(c, "failed to end trip", "error", err)
			unprocessable(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"ended_trip": toTripResponse(ended),
	})
}
