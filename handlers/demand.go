package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cybercafe-demand-api/forecast"
	"cybercafe-demand-api/logging"
	"cybercafe-demand-api/middleware"
	"cybercafe-demand-api/models"
	"cybercafe-demand-api/services"

	"github.com/gin-gonic/gin"
)

type DemandHandler struct {
	forecaster     *forecast.Forecaster
	source         forecast.SessionSource
	cache          *services.CacheService
	lookback       time.Duration
	defaultHorizon int
}

func NewDemandHandler(f *forecast.Forecaster, source forecast.SessionSource, cache *services.CacheService, lookback time.Duration, defaultHorizon int) *DemandHandler {
	return &DemandHandler{
		forecaster:     f,
		source:         source,
		cache:          cache,
		lookback:       lookback,
		defaultHorizon: defaultHorizon,
	}
}

// Retrain fits a new demand model on the lookback window of sessions.
func (h *DemandHandler) Retrain(c *gin.Context) {
	ctx := c.Request.Context()
	window := forecast.TimeRange{From: time.Now().UTC().Add(-h.lookback)}

	model, err := h.forecaster.RetrainFrom(ctx, h.source, window)
	if err != nil {
		respondError(c, err)
		return
	}

	info := models.NewModelInfo(model)
	logEvent := logging.Ctx(ctx).Info().Int("samples", model.TrainingSampleCount)
	if claims, ok := middleware.ClaimsFrom(c); ok {
		logEvent = logEvent.Str("requested_by", claims.UserID)
	}
	logEvent.Msg("retrain requested over http")

	// Publish outlives the request so a client disconnect does not drop it.
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		event := models.ModelEvent{Type: "model_retrained", Model: info}
		if err := h.cache.PublishModelEvent(pubCtx, event); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("publish model event failed")
		}
	}()

	c.JSON(http.StatusOK, models.RetrainResponse{
		Status:  "success",
		Message: "demand model retrained",
		Model:   info,
	})
}

// Predict returns the hourly session forecast for the next hours_ahead hours.
func (h *DemandHandler) Predict(c *gin.Context) {
	hoursStr := c.DefaultQuery("hours_ahead", strconv.Itoa(h.defaultHorizon))
	hours, err := strconv.Atoi(hoursStr)
	if err != nil {
		h.respondInvalidHorizon(c, fmt.Errorf("%w: hours_ahead %q is not an integer", forecast.ErrInvalidHorizon, hoursStr))
		return
	}

	points, err := h.forecaster.Predict(c.Request.Context(), hours)
	if errors.Is(err, forecast.ErrInvalidHorizon) {
		h.respondInvalidHorizon(c, err)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DemandPredictionResponse{
		Status:      "success",
		HoursAhead:  hours,
		Predictions: points,
	})
}

// ModelInfo describes the current model.
func (h *DemandHandler) ModelInfo(c *gin.Context) {
	model, err := h.forecaster.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "model": models.NewModelInfo(model)})
}

// respondInvalidHorizon adds the accepted range so clients can correct
// the request.
func (h *DemandHandler) respondInvalidHorizon(c *gin.Context, err error) {
	status, body := errorResponse(c, err)
	body["max_hours_ahead"] = h.forecaster.MaxHorizonHours()
	c.JSON(status, body)
}

func respondError(c *gin.Context, err error) {
	c.JSON(errorResponse(c, err))
}

func errorResponse(c *gin.Context, err error) (int, gin.H) {
	status := statusForError(err)
	reason := forecast.Reason(err)

	event := logging.Ctx(c.Request.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(c.Request.Context()).Error()
	}
	event.Err(err).Str("reason", reason).Msg("demand request failed")

	message := err.Error()
	if reason == "internal" {
		message = "internal server error"
	}
	return status, gin.H{"status": "error", "reason": reason, "error": message}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, forecast.ErrInvalidHorizon), errors.Is(err, forecast.ErrInsufficientData):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrSchemaMismatch):
		return http.StatusConflict
	case errors.Is(err, forecast.ErrDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, forecast.ErrModelNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
