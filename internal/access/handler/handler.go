// Package handler exposes the gate access endpoints.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/access/service"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/middleware"
	"github.com/CarlosSantos19/parqueadero-app/internal/transport/httputil"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
	s "github.com/CarlosSantos19/parqueadero-app/pkg/string"
	"github.com/CarlosSantos19/parqueadero-app/pkg/validation"
)

// Service defines the access operations the handler exposes.
type Service interface {
	Validate(ctx context.Context, req service.ValidateRequest) (models.Decision, error)
	Entry(ctx context.Context, req service.EntryRequest) (*service.EntryResult, error)
	Exit(ctx context.Context, req service.ExitRequest) (*service.ExitResult, error)
	CurrentOccupancy(ctx context.Context) (*service.Occupancy, error)
	Logs(ctx context.Context, filter models.EventFilter) ([]*models.AccessEvent, int, error)
	Stats(ctx context.Context, from, to time.Time) (*models.StatsSummary, error)
}

// Handler handles the gate access endpoints.
type Handler struct {
	access Service
	logger *slog.Logger
}

// New creates an access Handler.
func New(access Service, logger *slog.Logger) *Handler {
	return &Handler{access: access, logger: logger}
}

// Register mounts the access routes. Validation is reachable from gate
// terminals without an operator session; ledger mutations and history
// require one.
func (h *Handler) Register(public, protected chi.Router) {
	public.Post("/access/validate", h.handleValidate)
	protected.Post("/access/entry", h.handleEntry)
	protected.Post("/access/exit", h.handleExit)
	protected.Get("/access/occupancy", h.handleOccupancy)
	protected.Get("/access/logs", h.handleLogs)
	protected.Get("/access/stats", h.handleStats)
}

type validateRequest struct {
	Plate           string `json:"licensePlate" validate:"required"`
	UserType        string `json:"userType,omitempty" validate:"omitempty,oneof=employee visitor"`
	DetectionMethod string `json:"detectionMethod,omitempty" validate:"omitempty,oneof=manual camera_scan qr_scan rfid"`
}

// validateResponse mirrors the gate terminal contract: granted responses
// carry the credential details, denials carry the operator message.
type validateResponse struct {
	Success               bool                `json:"success"`
	Data                  *models.GrantedInfo `json:"data,omitempty"`
	Message               string              `json:"message,omitempty"`
	Reason                models.DenialReason `json:"reason,omitempty"`
	RequiresSpecialPermit bool                `json:"requiresSpecialPermit,omitempty"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	s.TrimStrings(&req.Plate, &req.UserType, &req.DetectionMethod)
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	decision, err := h.access.Validate(ctx, service.ValidateRequest{
		Plate:           req.Plate,
		UserType:        models.UserType(req.UserType),
		DetectionMethod: models.DetectionMethod(req.DetectionMethod),
		ProcessedBy:     middleware.GetOperatorID(ctx),
		ClientInfo:      clientInfo(r),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "validation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if decision.Granted {
		httputil.WriteJSON(w, http.StatusOK, validateResponse{Success: true, Data: decision.Info})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validateResponse{
		Success:               false,
		Message:               decision.Message,
		Reason:                decision.Reason,
		RequiresSpecialPermit: decision.RequiresSpecialPermit,
	})
}

type entryRequest struct {
	Plate           string `json:"licensePlate" validate:"required"`
	DetectionMethod string `json:"detectionMethod,omitempty" validate:"omitempty,oneof=manual camera_scan qr_scan rfid"`
}

func (h *Handler) handleEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	s.TrimStrings(&req.Plate, &req.DetectionMethod)
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.access.Entry(ctx, service.EntryRequest{
		Plate:           req.Plate,
		DetectionMethod: models.DetectionMethod(req.DetectionMethod),
		ProcessedBy:     middleware.GetOperatorID(ctx),
		ClientInfo:      clientInfo(r),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "entry rejected",
			"request_id", middleware.GetRequestID(ctx),
			"plate", req.Plate,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

type exitRequest struct {
	Plate string `json:"licensePlate" validate:"required"`
}

func (h *Handler) handleExit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req exitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	s.TrimStrings(&req.Plate)
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.access.Exit(ctx, service.ExitRequest{Plate: req.Plate})
	if err != nil {
		h.logger.WarnContext(ctx, "exit rejected",
			"request_id", middleware.GetRequestID(ctx),
			"plate", req.Plate,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	occupancy, err := h.access.CurrentOccupancy(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "occupancy query failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, occupancy)
}

type logsResponse struct {
	Data       []*models.AccessEvent `json:"data"`
	Pagination pagination            `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, page, limit, err := parseLogsQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, total, err := h.access.Logs(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "logs query failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	httputil.WriteJSON(w, http.StatusOK, logsResponse{
		Data: events,
		Pagination: pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, err := parseTimeParam(r, "from")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.access.Stats(ctx, from, to)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats query failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func parseLogsQuery(r *http.Request) (models.EventFilter, int, int, error) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return models.EventFilter{}, 0, 0, dErrors.New(dErrors.CodeInvalidInput, "page must be a positive integer")
		}
		page = parsed
	}
	limit := 50
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			return models.EventFilter{}, 0, 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 500")
		}
		limit = parsed
	}

	filter := models.EventFilter{
		Plate:      q.Get("plate"),
		UserType:   models.UserType(q.Get("userType")),
		AccessType: models.AccessType(q.Get("accessType")),
		Status:     models.EventStatus(q.Get("status")),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	from, err := parseTimeParam(r, "startDate")
	if err != nil {
		return models.EventFilter{}, 0, 0, err
	}
	to, err := parseTimeParam(r, "endDate")
	if err != nil {
		return models.EventFilter{}, 0, 0, err
	}
	filter.From = from
	filter.To = to
	return filter, page, limit, nil
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s must be RFC 3339", name))
	}
	return parsed, nil
}

// clientInfo condenses the User-Agent header into a short browser/OS string
// for the event record.
func clientInfo(r *http.Request) string {
	raw := r.UserAgent()
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	if ua.OS() != "" {
		return fmt.Sprintf("%s %s (%s)", name, version, ua.OS())
	}
	return fmt.Sprintf("%s %s", name, version)
}
