// Package api exposes the HTTP/JSON surface of the bike system.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civitech/bikesystem-backend/bike"
	"github.com/civitech/bikesystem-backend/internal/auth0"
	"github.com/civitech/bikesystem-backend/internal/middleware"
	"github.com/civitech/bikesystem-backend/internal/o11y"
	"github.com/civitech/bikesystem-backend/internal/pagination"
	"github.com/civitech/bikesystem-backend/rider"
	"github.com/civitech/bikesystem-backend/station"
	"github.com/civitech/bikesystem-backend/trip"
)

type API struct {
	r  *gin.Engine
	br *bike.Repository
	sr *station.Repository
	rr *rider.Repository
	tr *trip.Repository
}

// Config carries the collaborators the API does not own.
type Config struct {
	Verifier        auth0.Verifier
	MetricsUsername string
	MetricsPassword string
}

func New(br *bike.Repository, sr *station.Repository, rr *rider.Repository, tr *trip.Repository,
	obs *o11y.Observability, cfg Config) *API {
	a := &API{
		r:  gin.New(),
		br: br,
		sr: sr,
		rr: rr,
		tr: tr,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(obs.Logger))
	a.r.Use(middleware.Metrics(obs.Registry))

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	metricsHandler := gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))
	if cfg.MetricsUsername != "" {
		a.r.GET("/metrics", gin.BasicAuth(gin.Accounts{cfg.MetricsUsername: cfg.MetricsPassword}), metricsHandler)
	} else {
		a.r.GET("/metrics", metricsHandler)
	}

	protected := a.r.Group("/")
	protected.Use(cfg.Verifier.Middleware())
	{
		protected.GET("/bikes", middleware.RequirePermission("get:bikes"), a.getBikesHandler)
		protected.POST("/bikes", middleware.RequirePermission("edit:bikes"), a.createBikeHandler)
		protected.PATCH("/bikes/:id", middleware.RequirePermission("edit:bikes"), a.updateBikeHandler)
		protected.DELETE("/bikes/:id", middleware.RequirePermission("edit:bikes"), a.deleteBikeHandler)

		protected.GET("/stations", middleware.RequirePermission("get:stations"), a.getStationsHandler)
		protected.POST("/stations", middleware.RequirePermission("edit:stations"), a.createStationHandler)
		protected.PATCH("/stations/:id", middleware.RequirePermission("edit:stations"), a.updateStationHandler)
		protected.DELETE("/stations/:id", middleware.RequirePermission("edit:stations"), a.deleteStationHandler)

		protected.GET("/riders", middleware.RequirePermission("get:riders"), a.getRidersHandler)
		protected.POST("/riders", middleware.RequirePermission("edit:riders"), a.createRiderHandler)
		protected.PATCH("/riders/:id", middleware.RequirePermission("edit:riders"), a.updateRiderHandler)
		protected.DELETE("/riders/:id", middleware.RequirePermission("edit:riders"), a.deleteRiderHandler)

		protected.GET("/trips", middleware.RequirePermission("get:trips"), a.getTripsHandler)
		protected.POST("/trips", middleware.RequirePermission("create:trips"), a.startTripHandler)
		protected.PATCH("/trips/:id", middleware.RequirePermission("create:trips"), a.endTripHandler)
	}

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}

// fail writes the uniform error envelope.
func fail(c *gin.Context, status int, message any) {
	c.JSON(status, gin.H{"success": false, "error": status, "message": message})
}

func badRequest(c *gin.Context)    { fail(c, http.StatusBadRequest, "Bad request. Please try again") }
func notFound(c *gin.Context)      { fail(c, http.StatusNotFound, "Resource Not Found") }
func unprocessable(c *gin.Context) { fail(c, http.StatusUnprocessableEntity, "Unprocessable") }
func internalError(c *gin.Context) {
	fail(c, http.StatusInternalServerError, "Internal Service Error")
}

// pageParam parses ?page=N, defaulting to 1. Malformed values are rejected
// with 422.
func pageParam(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		unprocessable(c)
		return 0, false
	}
	return page, true
}

// idParam parses a path id. Non-numeric ids reference nothing, so they are
// reported as 404 like any other absent entity.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		notFound(c)
		return 0, false
	}
	return id, true
}

// pageOrEmpty slices without the empty-page error, for delete responses
// where the page may legitimately have drained.
func pageOrEmpty[T any](items []T, page int) []T {
	sliced, err := pagination.Page(items, page)
	if err != nil {
		return []T{}
	}
	return sliced
}
