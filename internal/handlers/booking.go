// Package handlers is the HTTP surface of the booking engine.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bookable/bookingd/internal/availability"
	"github.com/bookable/bookingd/internal/booking"
	"github.com/bookable/bookingd/internal/model"
	"github.com/bookable/bookingd/internal/slotgrid"
)

type BookingHandler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func NewBookingHandler(svc *booking.Service, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

type bookRequest struct {
	OrderID    string `json:"order_id"`
	LocationID string `json:"location_id"`
	CalendarID string `json:"calendar_id"`
	SlotTime   string `json:"slot_time"`
}

type appointmentItem struct {
	AppointmentID string         `json:"appointment_id"`
	OrderID       string         `json:"order_id"`
	Status        string         `json:"status"`
	From          string         `json:"from,omitempty"`
	To            string         `json:"to,omitempty"`
	IsConfirmed   bool           `json:"is_confirmed"`
	Code          string         `json:"code,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
}

type availabilityDayItem struct {
	Date      string   `json:"date"`
	SlotTimes []string `json:"slot_times"`
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	calendarID := strings.TrimSpace(r.URL.Query().Get("calendar_id"))
	locationID := strings.TrimSpace(r.URL.Query().Get("location_id"))
	if calendarID == "" && locationID == "" {
		http.Error(w, "calendar_id or location_id required", http.StatusBadRequest)
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

	var days []availability.Day
	if calendarID != "" {
		days, err = h.svc.GetAvailability(r.Context(), calendarID, from, to)
	} else {
		days, err = h.svc.GetLocationAvailability(r.Context(), locationID, from, to)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items := make([]availabilityDayItem, 0, len(days))
	for _, d := range days {
		item := availabilityDayItem{Date: d.Date.String(), SlotTimes: make([]string, 0, len(d.Slots))}
		for _, s := range d.Slots {
			item.SlotTimes = append(item.SlotTimes, s.UTC().Format(time.RFC3339))
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.CalendarID = strings.TrimSpace(req.CalendarID)
	if req.OrderID == "" || req.CalendarID == "" {
		http.Error(w, "order_id and calendar_id required", http.StatusBadRequest)
		return
	}
	slotTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.SlotTime))
	if err != nil {
		http.Error(w, "invalid slot_time", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), booking.BookRequest{
		OrderID:    req.OrderID,
		LocationID: strings.TrimSpace(req.LocationID),
		CalendarID: req.CalendarID,
		SlotTime:   slotTime,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentItem(appt))
}

func (h *BookingHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		appt, err := h.svc.GetAppointment(r.Context(), id)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentItem(appt))
		return
	}

	orderID := strings.TrimSpace(r.URL.Query().Get("order_id"))
	if orderID == "" {
		http.Error(w, "id or order_id required", http.StatusBadRequest)
		return
	}
	appts, err := h.svc.ListAppointmentsByOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for i := range appts {
		items = append(items, toAppointmentItem(&appts[i]))
	}
	writeJSON(w, http.StatusOK, items)
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Cancel(r.Context(), req.AppointmentID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

type rescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	SlotTime      string `json:"slot_time"`
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	slotTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.SlotTime))
	if err != nil {
		http.Error(w, "invalid slot_time", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Reschedule(r.Context(), req.AppointmentID, slotTime)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

func toAppointmentItem(appt *model.Appointment) appointmentItem {
	item := appointmentItem{
		AppointmentID: appt.ID,
		OrderID:       appt.OrderID,
		Status:        string(appt.Status),
		IsConfirmed:   appt.IsConfirmed,
		Code:          appt.Code,
		Metadata:      appt.Metadata,
	}
	if appt.From != nil {
		item.From = appt.From.UTC().Format(time.RFC3339)
	}
	if appt.To != nil {
		item.To = appt.To.UTC().Format(time.RFC3339)
	}
	if !appt.CreatedAt.IsZero() {
		item.CreatedAt = appt.CreatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

// writeError maps booking errors to HTTP statuses. Unmapped errors are logged
// and answered with a generic 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, booking.ErrCalendarNotFound),
		errors.Is(err, booking.ErrLocationNotFound),
		errors.Is(err, booking.ErrOrderNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrTimeperiodNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrOrderAlreadyBooked),
		errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrTimeperiodManaged),
		errors.Is(err, model.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrNoDuration):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, slotgrid.ErrInvalidInterval),
		errors.Is(err, slotgrid.ErrInvalidGranularity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
