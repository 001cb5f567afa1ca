package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/civitech/bikesystem-backend/internal/middleware"
	"github.com/civitech/bikesystem-backend/internal/pagination"
	"github.com/civitech/bikesystem-backend/rider"
)

type riderResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Membership bool   `json:"membership"`
	NumTrips   int    `json:"num_trips"`
}

func toRiderResponse(r rider.Rider) riderResponse {
	return riderResponse{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email,
		Address:    r.Address,
		Membership: r.Membership,
		NumTrips:   r.NumTrips,
	}
}

func toRiderResponses(riders []rider.Rider) []riderResponse {
	out := make([]riderResponse, 0, len(riders))
	for _, r := range riders {
		out = append(out, toRiderResponse(r))
	}
	return out
}

func (a *API) getRidersHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	page, ok := pageParam(c)
	if !ok {
		return
	}

	riders, err := a.rr.GetRiders(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list riders", "error", err)
		unprocessable(c)
		return
	}

	current, err := pagination.Page(riders, page)
	if err != nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"riders":           toRiderResponses(current),
		"total_num_riders": len(riders),
		"page":             page,
	})
}

type createRiderRequest struct {
	Name       *string `json:"name" binding:"required"`
	Email      *string `json:"email" binding:"required"`
	Address    *string `json:"address" binding:"required"`
	Membership *bool   `json:"membership" binding:"required"`
}

func (a *API) createRiderHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	page, ok := pageParam(c)
	if !ok {
		return
	}

	var req createRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c)
		return
	}

	created, err := a.rr.CreateRider(c, rider.Rider{
		Name:       *req.Name,
		Email:      *req.Email,
		Address:    *req.Address,
		Membership: *req.Membership,
	})
	if err != nil {
		logger.ErrorContext(c, "failed to create rider", "error", err)
		unprocessable(c)
		return
	}

	riders, err := a.rr.GetRiders(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list riders", "error", err)
		unprocessable(c)
		return
	}

	current, err := pagination.Page(riders, page)
	if err != nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"created_rider_id": created.ID,
		"riders":           toRiderResponses(current),
		"total_num_riders": len(riders),
		"page":             page,
	})
}

func (a *API) updateRiderHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, ok := idParam(c)
	if !ok {
		return
	}

	var patch rider.Patch
	if err := json.NewDecoder(c.Request.Body).Decode(&patch); err != nil {
		unprocessable(c)
		return
	}

	updated, err := a.rr.UpdateRider(c, id, patch)
	if err != nil {
		if errors.Is(err, rider.ErrNotFound) {
			notFound(c)
			return
		}
		logger.ErrorContext(c, "failed to update rider", "error", err)
		unprocessable(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"rider_updated": toRiderResponse(updated),
	})
}

// deleteRiderHandler removes the rider and, in the same transaction, all of
// that rider's trips.
func (a *API) deleteRiderHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, ok := idParam(c)
	if !ok {
		return
	}

	page, ok := pageParam(c)
	if !ok {
		return
	}

	if err := a.rr.DeleteRider(c, id); err != nil {
		if errors.Is(err, rider.ErrNotFound) {
			notFound(c)
			return
		}
		logger.ErrorContext(c, "failed to delete rider", "error", err)
		internalError(c)
		return
	}

	riders, err := a.rr.GetRiders(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list riders", "error", err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"deleted_rider_id": id,
		"riders":           toRiderResponses(pageOrEmpty(riders, page)),
		"total_num_riders": len(riders),
		"page":             page,
	})
}
