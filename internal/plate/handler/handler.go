// Package handler exposes the plate recognition endpoints.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CarlosSantos19/parqueadero-app/internal/plate"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/middleware"
	"github.com/CarlosSantos19/parqueadero-app/internal/transport/httputil"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
	s "github.com/CarlosSantos19/parqueadero-app/pkg/string"
	"github.com/CarlosSantos19/parqueadero-app/pkg/validation"
)

// maxBatchSize bounds one batch request.
const maxBatchSize = 20

// Service defines the recognition operations the handler exposes.
type Service interface {
	RecognizePlate(ctx context.Context, image []byte) (plate.Result, error)
	RecognizeBatch(ctx context.Context, images [][]byte) []plate.BatchItem
}

// Handler handles the recognition endpoints.
type Handler struct {
	recognition Service
	logger      *slog.Logger
}

// New creates a recognition Handler.
func New(recognition Service, logger *slog.Logger) *Handler {
	return &Handler{recognition: recognition, logger: logger}
}

// Register mounts the recognition routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ocr/plate", h.handleRecognize)
	r.Post("/ocr/batch", h.handleRecognizeBatch)
}

type recognizeRequest struct {
	ImageData string `json:"imageData" validate:"required"`
}

func (h *Handler) handleRecognize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.TrimStrings(&req.ImageData)
	image, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "imageData must be base64"))
		return
	}

	result, err := h.recognition.RecognizePlate(ctx, image)
	if err != nil {
		h.logger.ErrorContext(ctx, "plate recognition failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type recognizeBatchRequest struct {
	Images []string `json:"images" validate:"required,min=1"`
}

type recognizeBatchResponse struct {
	Items []plate.BatchItem `json:"items"`
}

func (h *Handler) handleRecognizeBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recognizeBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(req.Images) > maxBatchSize {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "too many images in one batch"))
		return
	}

	s.TrimSlice(req.Images)
	images := make([][]byte, len(req.Images))
	for i, encoded := range req.Images {
		image, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "images must be base64"))
			return
		}
		images[i] = image
	}

	items := h.recognition.RecognizeBatch(ctx, images)
	httputil.WriteJSON(w, http.StatusOK, recognizeBatchResponse{Items: items})
}
