package report

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"herdwatch/internal/auth"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/transport/http/shared"
	dErrors "herdwatch/pkg/domain-errors"
	"herdwatch/pkg/date"
)

// Handler wires the report endpoint.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the report route on an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/reports", h.handleGenerate)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	params, err := paramsFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if params.Format == FormatPDF {
		shared.WriteJSON(w, http.StatusNotImplemented, map[string]string{
			"detail": "PDF export is not implemented; use json or csv",
		})
		return
	}

	switch params.Type {
	case TypeSummary:
		rep, err := h.service.Summary(ctx, actor, params)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.respond(w, r, params, rep.From, rep.To, rep, func(wr http.ResponseWriter) error { return writeSummaryCSV(wr, rep) })
	case TypeMilk:
		rep, err := h.service.Milk(ctx, actor, params)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.respond(w, r, params, rep.From, rep.To, rep, func(wr http.ResponseWriter) error { return writeMilkCSV(wr, rep) })
	case TypeHealth:
		rep, err := h.service.Health(ctx, actor, params)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.respond(w, r, params, rep.From, rep.To, rep, func(wr http.ResponseWriter) error { return writeHealthCSV(wr, rep) })
	case TypeAlerts:
		rep, err := h.service.Alerts(ctx, actor, params)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.respond(w, r, params, rep.From, rep.To, rep, func(wr http.ResponseWriter) error { return writeAlertsCSV(wr, rep) })
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, params Params, from, to date.Date, jsonBody any, writeCSV func(http.ResponseWriter) error) {
	if params.Format == FormatJSON {
		shared.WriteJSON(w, http.StatusOK, jsonBody)
		return
	}
	filename := fmt.Sprintf("%s_report_%s_%s.csv", params.Type, from, to)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := writeCSV(w); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
}

func paramsFromQuery(r *http.Request) (Params, error) {
	q := r.URL.Query()
	p := Params{
		Type:   Type(q.Get("report_type")),
		Format: Format(q.Get("format")),
	}
	if p.Type == "" {
		p.Type = TypeSummary
	}
	if p.Format == "" {
		p.Format = FormatJSON
	}
	if raw := q.Get("farm_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return p, dErrors.New(dErrors.CodeValidation, "invalid farm_id")
		}
		p.FarmID = id
	}
	var err error
	if raw := q.Get("from"); raw != "" {
		if p.From, err = date.Parse(raw); err != nil {
			return p, dErrors.New(dErrors.CodeValidation, "invalid from date")
		}
	}
	if raw := q.Get("to"); raw != "" {
		if p.To, err = date.Parse(raw); err != nil {
			return p, dErrors.New(dErrors.CodeValidation, "invalid to date")
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "report generation failed",
		"error", err.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)
	shared.WriteError(w, err)
}
