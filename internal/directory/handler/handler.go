// Package handler exposes visitor pass and vehicle lookup endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/directory/service"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/middleware"
	"github.com/CarlosSantos19/parqueadero-app/internal/transport/httputil"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
	s "github.com/CarlosSantos19/parqueadero-app/pkg/string"
	"github.com/CarlosSantos19/parqueadero-app/pkg/validation"
)

// Service defines the directory operations the handler exposes.
type Service interface {
	ValidateQR(ctx context.Context, token string) (*service.QRValidation, error)
	TodaySummary(ctx context.Context) (*service.DaySummary, error)
	ExtendVisit(ctx context.Context, visitorID id.VisitorID, extraHours int) (*models.Visitor, error)
	SearchByPlate(ctx context.Context, plate string) (*service.PlateSearchResult, error)
}

// Handler handles visitor and vehicle lookup endpoints.
type Handler struct {
	directory Service
	logger    *slog.Logger
}

// New creates a directory Handler.
func New(directory Service, logger *slog.Logger) *Handler {
	return &Handler{directory: directory, logger: logger}
}

// Register mounts the directory routes. The public group is reachable from
// gate terminals without an operator session; the protected group requires
// one.
func (h *Handler) Register(public, protected chi.Router) {
	public.Post("/visitors/validate-qr", h.handleValidateQR)
	protected.Get("/visitors/today", h.handleVisitorsToday)
	protected.Patch("/visitors/{visitorID}/extend", h.handleExtendVisit)
	protected.Get("/vehicles/search/{plate}", h.handleSearchByPlate)
}

type validateQRRequest struct {
	QRToken string `json:"qrToken" validate:"required"`
}

func (h *Handler) handleValidateQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req validateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	s.TrimStrings(&req.QRToken)
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.directory.ValidateQR(ctx, req.QRToken)
	if err != nil {
		h.logger.WarnContext(ctx, "QR validation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVisitorsToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.directory.TodaySummary(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "today summary failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

type extendVisitRequest struct {
	AdditionalHours int `json:"additionalHours" validate:"required,gt=0"`
}

func (h *Handler) handleExtendVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	visitorID, err := id.ParseVisitorID(chi.URLParam(r, "visitorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req extendVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	visitor, err := h.directory.ExtendVisit(ctx, visitorID, req.AdditionalHours)
	if err != nil {
		h.logger.WarnContext(ctx, "extend visit failed",
			"request_id", requestID,
			"visitor_id", visitorID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, visitor)
}

func (h *Handler) handleSearchByPlate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plate := chi.URLParam(r, "plate")
	if plate == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "plate is required"))
		return
	}

	result, err := h.directory.SearchByPlate(ctx, plate)
	if err != nil {
		h.logger.ErrorContext(ctx, "plate search failed",
			"request_id", middleware.GetRequestID(ctx),
			"plate", plate,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
