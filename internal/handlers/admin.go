package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bookable/bookingd/internal/booking"
	"github.com/bookable/bookingd/internal/model"
)

// AdminHandler manages calendars and their working-hour configuration.
type AdminHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewAdminHandler(svc *booking.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

type createCalendarRequest struct {
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
}

type calendarItem struct {
	CalendarID string `json:"calendar_id"`
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func (h *AdminHandler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.LocationID = strings.TrimSpace(req.LocationID)
	req.Name = strings.TrimSpace(req.Name)
	if req.LocationID == "" || req.Name == "" {
		http.Error(w, "location_id and name required", http.StatusBadRequest)
		return
	}

	cal, err := h.svc.CreateCalendar(r.Context(), req.LocationID, req.Name, strings.TrimSpace(req.Color))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, calendarItem{
		CalendarID: cal.ID,
		LocationID: cal.LocationID,
		Name:       cal.Name,
		Color:      cal.Color,
		CreatedAt:  cal.CreatedAt.UTC().Format(time.RFC3339),
	})
}

type createTimeperiodRequest struct {
	CalendarID string `json:"calendar_id"`
	Type       string `json:"type"`
	From       string `json:"from"`
	To         string `json:"to"`
	Title      string `json:"title"`
}

type timeperiodItem struct {
	TimeperiodID string         `json:"timeperiod_id"`
	CalendarID   string         `json:"calendar_id"`
	Type         string         `json:"type"`
	From         string         `json:"from"`
	To           string         `json:"to"`
	Title        string         `json:"title,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (h *AdminHandler) CreateTimeperiod(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createTimeperiodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CalendarID = strings.TrimSpace(req.CalendarID)
	if req.CalendarID == "" {
		http.Error(w, "calendar_id required", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(time.RFC3339, strings.TrimSpace(req.From))
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(time.RFC3339, strings.TrimSpace(req.To))
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	period, err := h.svc.CreateTimeperiod(r.Context(), req.CalendarID, model.TimeperiodType(strings.TrimSpace(req.Type)), from, to, strings.TrimSpace(req.Title))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeperiodItem(period))
}

func (h *AdminHandler) ListTimeperiods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	calendarID := strings.TrimSpace(r.URL.Query().Get("calendar_id"))
	if calendarID == "" {
		http.Error(w, "calendar_id required", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(time.RFC3339, strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(time.RFC3339, strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}

	types := parseTimeperiodTypes(r.URL.Query().Get("types"))
	periods, err := h.svc.ListTimeperiods(r.Context(), calendarID, types, from, to)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]timeperiodItem, 0, len(periods))
	for i := range periods {
		items = append(items, toTimeperiodItem(&periods[i]))
	}
	writeJSON(w, http.StatusOK, items)
}

type deleteTimeperiodRequest struct {
	TimeperiodID string `json:"timeperiod_id"`
}

func (h *AdminHandler) DeleteTimeperiod(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req deleteTimeperiodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TimeperiodID = strings.TrimSpace(req.TimeperiodID)
	if req.TimeperiodID == "" {
		http.Error(w, "timeperiod_id required", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteTimeperiod(r.Context(), req.TimeperiodID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseTimeperiodTypes reads a comma-separated type filter; an empty or
// unusable filter means all types.
func parseTimeperiodTypes(raw string) []model.TimeperiodType {
	var types []model.TimeperiodType
	for _, part := range strings.Split(raw, ",") {
		t := model.TimeperiodType(strings.TrimSpace(part))
		if t.Valid() {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return []model.TimeperiodType{
			model.TimeperiodWorkingHour,
			model.TimeperiodBreaktime,
			model.TimeperiodBlocked,
			model.TimeperiodOff,
		}
	}
	return types
}

func toTimeperiodItem(p *model.Timeperiod) timeperiodItem {
	return timeperiodItem{
		TimeperiodID: p.ID,
		CalendarID:   p.CalendarID,
		Type:         string(p.Type),
		From:         p.From.UTC().Format(time.RFC3339),
		To:           p.To.UTC().Format(time.RFC3339),
		Title:        p.Title,
		Metadata:     p.Metadata,
	}
}

