package calculator

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"calc-backend/internal/images"
	"calc-backend/internal/shared/metrics"
	"calc-backend/internal/shared/server/middleware"
	"calc-backend/internal/shared/server/respond"
	"calc-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the analysis route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/calculate", h.calculate)
}

func (h *Handler) calculate(c *gin.Context) {
	req, err := decodeCalculateRequest(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "Invalid request body", nil)
		return
	}

	requestID := middleware.RequestIDFromContext(c)
	imageID := strings.TrimSpace(req.ImageID)
	if imageID != "" {
		c.Set(middleware.ImageIDKey, imageID)
	}
	telemetry.Info("calculate.start", map[string]any{
		"request_id": requestID,
		"image_id":   imageID,
		"has_vars":   req.DictOfVars != nil,
	})

	ctx := WithRequestID(c.Request.Context(), requestID)
	result, err := h.Svc.Calculate(ctx, imageID, req.DictOfVars)
	switch {
	case err == nil:
		respond.OK(c, CalculateResponse{Result: result})
	case errors.Is(err, ErrImageIDRequired):
		respond.Error(c, http.StatusBadRequest, "image_id_required", "imageId is required", nil)
	case errors.Is(err, images.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Image not found", nil)
	default:
		metrics.IncCalculationsFailed()
		telemetry.Error("calculate.failed", map[string]any{
			"request_id": requestID,
			"image_id":   imageID,
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "analysis_failed", "Failed to analyze image", err.Error())
	}
}

// decodeCalculateRequest keeps numeric variables as json.Number so they reach
// the prompt exactly as sent. An empty body decodes to a zero request.
func decodeCalculateRequest(body io.Reader) (calculateRequest, error) {
	var req calculateRequest
	if body == nil {
		return req, nil
	}
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return calculateRequest{}, err
	}
	return req, nil
}
