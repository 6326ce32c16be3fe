package images

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"calc-backend/internal/shared/metrics"
	"calc-backend/internal/shared/server/middleware"
	"calc-backend/internal/shared/server/respond"
	"calc-backend/internal/shared/telemetry"
)

const (
	imageField           = "image"
	defaultMaxUploadSize = 10 << 20 // 10MB
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. maxUploadBytes caps multipart file uploads.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadSize
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the ingestion route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/image", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	in, err := h.readInput(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	rec, err := h.Svc.Ingest(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Set(middleware.ImageIDKey, rec.ID)
	metrics.IncImagesStored()
	telemetry.Info("image.stored", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"image_id":   rec.ID,
		"source":     Source(in),
	})
	respond.OK(c, toUploadResponse(rec))
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoImage):
		h.reject(c, "no_image", "No image provided")
	case errors.Is(err, ErrInvalidBase64):
		h.reject(c, "invalid_base64", "Invalid base64 format")
	case errors.Is(err, ErrEmptyImage):
		h.reject(c, "invalid_image", "Invalid image data")
	case errors.Is(err, ErrTooLarge):
		h.reject(c, "image_too_large", "Image too large")
	case errors.Is(err, ErrInvalidBody):
		h.reject(c, "invalid_request", "Invalid request body")
	default:
		// The cause stays in the server log; callers only see a generic message.
		telemetry.Error("image.ingest_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "server_error", "Server error", nil)
	}
}

func (h *Handler) reject(c *gin.Context, code, message string) {
	metrics.IncImagesRejected()
	respond.Error(c, http.StatusBadRequest, code, message, nil)
}

// readInput resolves the request into a single Input variant. A file upload
// takes precedence over an inline base64 field.
func (h *Handler) readInput(c *gin.Context) (Input, error) {
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm:
		fileHeader, err := c.FormFile(imageField)
		switch {
		case err == nil:
			return h.readFile(fileHeader.Size, func() (io.ReadCloser, error) { return fileHeader.Open() })
		case isTooLarge(err):
			return nil, ErrTooLarge
		case errors.Is(err, http.ErrMissingFile):
			return inlineInput(c.PostForm(imageField))
		default:
			return nil, ErrInvalidBody
		}
	case gin.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			if isTooLarge(err) {
				return nil, ErrTooLarge
			}
			return nil, ErrInvalidBody
		}
		return inlineInput(c.Request.PostForm.Get(imageField))
	default:
		var req uploadRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return nil, ErrNoImage
			case isTooLarge(err):
				return nil, ErrTooLarge
			default:
				return nil, ErrInvalidBody
			}
		}
		return inlineInput(req.Image)
	}
}

func (h *Handler) readFile(size int64, open func() (io.ReadCloser, error)) (Input, error) {
	if size > h.MaxUploadBytes {
		return nil, ErrTooLarge
	}
	f, err := open()
	if err != nil {
		return nil, ErrInvalidBody
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.MaxUploadBytes+1))
	if err != nil {
		return nil, ErrInvalidBody
	}
	if int64(len(data)) > h.MaxUploadBytes {
		return nil, ErrTooLarge
	}
	return RawBytes(data), nil
}

func inlineInput(raw string) (Input, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoImage
	}
	return Base64String(raw), nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return true
	}
	// multipart parsing flattens the reader error into its message.
	return err != nil && strings.Contains(err.Error(), "request body too large")
}
