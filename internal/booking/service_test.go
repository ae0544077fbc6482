package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bookable/bookingd/internal/model"
)

// fakeStore is an in-memory Store. The companion fakeTx snapshots it before
// each transaction and restores the snapshot on error, so tests can assert the
// same all-or-nothing behavior the database gives.
type fakeStore struct {
	mu           sync.Mutex
	calendars    map[string]model.Calendar
	periods      map[string]model.Timeperiod
	appointments map[string]model.Appointment
	orders       map[string]model.Order
	events       []fakeEvent
}

type fakeEvent struct {
	Type        string
	AggregateID string
	Fields      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		calendars:    map[string]model.Calendar{},
		periods:      map[string]model.Timeperiod{},
		appointments: map[string]model.Appointment{},
		orders:       map[string]model.Order{},
	}
}

func (f *fakeStore) CalendarExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.calendars[id]
	return ok, nil
}

func (f *fakeStore) CreateCalendar(_ context.Context, cal *model.Calendar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cal.CreatedAt = time.Now()
	f.calendars[cal.ID] = *cal
	return nil
}

func (f *fakeStore) ListCalendarsByLocation(_ context.Context, locationID string) ([]model.Calendar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Calendar
	for _, cal := range f.calendars {
		if cal.LocationID == locationID {
			out = append(out, cal)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTimeperiods(_ context.Context, calendarID string, types []model.TimeperiodType, from, to time.Time) ([]model.Timeperiod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Timeperiod
	for _, p := range f.periods {
		if p.CalendarID != calendarID {
			continue
		}
		if p.From.After(to) || p.To.Before(from) {
			continue
		}
		for _, t := range types {
			if p.Type == t {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetTimeperiod(_ context.Context, id string) (*model.Timeperiod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.periods[id]
	if !ok {
		return nil, ErrTimeperiodNotFound
	}
	return &p, nil
}

func (f *fakeStore) CreateTimeperiod(_ context.Context, period *model.Timeperiod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods[period.ID] = *period
	return nil
}

func (f *fakeStore) DeleteTimeperiod(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.periods[id]; !ok {
		return ErrTimeperiodNotFound
	}
	delete(f.periods, id)
	return nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := a
	cp.Metadata = copyMeta(a.Metadata)
	return &cp, nil
}

func (f *fakeStore) ListAppointmentsByOrder(_ context.Context, orderID string) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Appointment
	for _, a := range f.appointments {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAppointment(_ context.Context, appt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt.CreatedAt = time.Now()
	cp := *appt
	cp.Metadata = copyMeta(appt.Metadata)
	f.appointments[appt.ID] = cp
	return nil
}

func (f *fakeStore) UpdateAppointment(_ context.Context, appt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appointments[appt.ID]; !ok {
		return ErrAppointmentNotFound
	}
	cp := *appt
	cp.Metadata = copyMeta(appt.Metadata)
	f.appointments[appt.ID] = cp
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (f *fakeStore) EmitEvent(_ context.Context, eventType, aggregateID string, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fakeEvent{Type: eventType, AggregateID: aggregateID, Fields: fields})
	return nil
}

func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fakeTx serializes all transactions with one mutex and restores a snapshot
// when the callback fails.
type fakeTx struct {
	store *fakeStore
	mu    sync.Mutex
}

func (tx *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	snap := tx.snapshot()
	if err := fn(ctx, tx.store); err != nil {
		tx.restore(snap)
		return err
	}
	return nil
}

func (tx *fakeTx) WithCalendarLock(ctx context.Context, calendarID string, fn func(ctx context.Context, s Store) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if _, ok := tx.store.calendars[calendarID]; !ok {
		return ErrCalendarNotFound
	}
	snap := tx.snapshot()
	if err := fn(ctx, tx.store); err != nil {
		tx.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	periods      map[string]model.Timeperiod
	appointments map[string]model.Appointment
	events       []fakeEvent
}

func (tx *fakeTx) snapshot() storeSnapshot {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	snap := storeSnapshot{
		periods:      make(map[string]model.Timeperiod, len(tx.store.periods)),
		appointments: make(map[string]model.Appointment, len(tx.store.appointments)),
		events:       append([]fakeEvent(nil), tx.store.events...),
	}
	for k, v := range tx.store.periods {
		snap.periods[k] = v
	}
	for k, v := range tx.store.appointments {
		v.Metadata = copyMeta(v.Metadata)
		snap.appointments[k] = v
	}
	return snap
}

func (tx *fakeTx) restore(snap storeSnapshot) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.periods = snap.periods
	tx.store.appointments = snap.appointments
	tx.store.events = snap.events
}

func newTestService(store *fakeStore) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, &fakeTx{store: store}, 15, logger)
}

func seedCalendar(store *fakeStore, calendarID string, day time.Time) {
	store.calendars[calendarID] = model.Calendar{ID: calendarID, LocationID: "loc-1", Name: "Chair 1"}
	store.periods[uuid.NewString()] = model.Timeperiod{
		ID:         uuid.NewString(),
		CalendarID: calendarID,
		Type:       model.TimeperiodWorkingHour,
		From:       day.Add(9 * time.Hour),
		To:         day.Add(17 * time.Hour),
	}
}

func seedOrder(store *fakeStore, orderID string, durationMin int) {
	store.orders[orderID] = model.Order{
		ID: orderID,
		Items: []model.LineItem{
			{ID: uuid.NewString(), OrderID: orderID, Title: "Haircut", Quantity: 1,
				VariantMetadata: map[string]any{"duration_min": durationMin}},
		},
	}
}

func TestBook_HappyPath(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 45)
	svc := newTestService(store)

	slot := day.Add(10 * time.Hour)
	appt, err := svc.Book(context.Background(), BookRequest{
		OrderID: "order-1", CalendarID: "cal-1", SlotTime: slot,
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if appt.Status != model.AppointmentScheduled {
		t.Fatalf("expected scheduled, got %s", appt.Status)
	}
	if appt.From == nil || !appt.From.Equal(slot) {
		t.Fatalf("wrong from: %v", appt.From)
	}
	if appt.To == nil || !appt.To.Equal(slot.Add(45*time.Minute)) {
		t.Fatalf("wrong to: %v", appt.To)
	}
	if !appt.IsConfirmed {
		t.Fatal("expected appointment to be confirmed")
	}
	if appt.Code == "" {
		t.Fatal("expected a booking code")
	}

	periodID := appt.TimeperiodID()
	if periodID == "" {
		t.Fatal("appointment metadata missing timeperiod_id")
	}
	period, err := store.GetTimeperiod(context.Background(), periodID)
	if err != nil {
		t.Fatalf("blocking period missing: %v", err)
	}
	if period.Type != model.TimeperiodBlocked {
		t.Fatalf("expected blocked period, got %s", period.Type)
	}
	if period.AppointmentID() != appt.ID {
		t.Fatalf("period metadata points at %q, want %q", period.AppointmentID(), appt.ID)
	}

	if len(store.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(store.events))
	}
	if store.events[0].Type != EventAppointmentCreated || store.events[1].Type != EventAppointmentUpdated {
		t.Fatalf("wrong event sequence: %s, %s", store.events[0].Type, store.events[1].Type)
	}
}

func TestBook_SlotBecomesUnavailable(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 60)
	seedOrder(store, "order-2", 60)
	svc := newTestService(store)

	slot := day.Add(10 * time.Hour)
	if _, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: slot}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Overlapping window for a different order.
	_, err := svc.Book(context.Background(), BookRequest{OrderID: "order-2", CalendarID: "cal-1", SlotTime: slot.Add(30 * time.Minute)})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}

	// Nothing from the failed attempt may remain.
	appts, _ := store.ListAppointmentsByOrder(context.Background(), "order-2")
	if len(appts) != 0 {
		t.Fatalf("failed booking left %d appointments behind", len(appts))
	}
	if len(store.events) != 2 {
		t.Fatalf("failed booking leaked events: %d", len(store.events))
	}
}

func TestBook_DuplicateOrderRejected(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 30)
	svc := newTestService(store)

	if _, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: day.Add(9 * time.Hour)}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	_, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: day.Add(14 * time.Hour)})
	if !errors.Is(err, ErrOrderAlreadyBooked) {
		t.Fatalf("expected ErrOrderAlreadyBooked, got %v", err)
	}
}

func TestBook_UnknownCalendarAndOrder(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	svc := newTestService(store)

	_, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "nope", SlotTime: day.Add(10 * time.Hour)})
	if !errors.Is(err, ErrCalendarNotFound) {
		t.Fatalf("expected ErrCalendarNotFound, got %v", err)
	}

	_, err = svc.Book(context.Background(), BookRequest{OrderID: "ghost", CalendarID: "cal-1", SlotTime: day.Add(10 * time.Hour)})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestBook_NoResolvableDuration(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	store.orders["order-1"] = model.Order{ID: "order-1", Items: []model.LineItem{
		{ID: "li-1", OrderID: "order-1", Title: "Gift card", Quantity: 1},
	}}
	svc := newTestService(store)

	_, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: day.Add(10 * time.Hour)})
	if !errors.Is(err, ErrNoDuration) {
		t.Fatalf("expected ErrNoDuration, got %v", err)
	}
}

func TestBook_ConcurrentSameSlotOneWinner(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 60)
	seedOrder(store, "order-2", 60)
	svc := newTestService(store)

	slot := day.Add(11 * time.Hour)
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, orderID := range []string{"order-1", "order-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), BookRequest{OrderID: id, CalendarID: "cal-1", SlotTime: slot})
			errs <- err
		}(orderID)
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotUnavailable):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got %d winners / %d losers", won, lost)
	}

	blocked := 0
	for _, p := range store.periods {
		if p.Type == model.TimeperiodBlocked {
			blocked++
		}
	}
	if blocked != 1 {
		t.Fatalf("expected 1 blocking period, got %d", blocked)
	}
}

func TestBook_NonUTCSlotTime(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store.calendars["cal-1"] = model.Calendar{ID: "cal-1", LocationID: "loc-1", Name: "Chair 1"}
	// Evening hours so the local date in UTC+5:30 has already rolled over.
	store.periods["wh-1"] = model.Timeperiod{
		ID:         "wh-1",
		CalendarID: "cal-1",
		Type:       model.TimeperiodWorkingHour,
		From:       day.Add(14 * time.Hour),
		To:         day.Add(23 * time.Hour),
	}
	seedOrder(store, "order-1", 60)
	svc := newTestService(store)

	// 2026-03-02 01:00 +05:30 is 2026-03-01 19:30 UTC, free and grid-aligned.
	ist := time.FixedZone("UTC+5:30", 5*3600+30*60)
	slot := time.Date(2026, 3, 2, 1, 0, 0, 0, ist)
	appt, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: slot})
	if err != nil {
		t.Fatalf("booking with non-UTC slot time failed: %v", err)
	}
	if appt.From == nil || !appt.From.Equal(day.Add(19*time.Hour+30*time.Minute)) {
		t.Fatalf("wrong from: %v", appt.From)
	}
}

func TestBook_ConcurrentSameOrderOneWinner(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 60)
	svc := newTestService(store)

	// Non-overlapping slots, same order: the slot check cannot save us here,
	// only the order re-check under the lock can.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, slot := range []time.Time{day.Add(9 * time.Hour), day.Add(14 * time.Hour)} {
		wg.Add(1)
		go func(at time.Time) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: at})
			errs <- err
		}(slot)
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrOrderAlreadyBooked):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got %d winners / %d losers", won, lost)
	}

	appts, _ := store.ListAppointmentsByOrder(context.Background(), "order-1")
	scheduled := 0
	for _, a := range appts {
		if a.Status == model.AppointmentScheduled {
			scheduled++
		}
	}
	if scheduled != 1 {
		t.Fatalf("expected 1 scheduled appointment, got %d", scheduled)
	}
}

func TestCancel_ReleasesSlotForRebooking(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 30)
	seedOrder(store, "order-2", 30)
	svc := newTestService(store)

	slot := day.Add(10 * time.Hour)
	appt, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: slot})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	canceled, err := svc.Cancel(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if canceled.Status != model.AppointmentCanceled {
		t.Fatalf("expected canceled, got %s", canceled.Status)
	}
	if _, err := store.GetTimeperiod(context.Background(), appt.TimeperiodID()); !errors.Is(err, ErrTimeperiodNotFound) {
		t.Fatal("blocking period was not released")
	}
	if last := store.events[len(store.events)-1]; last.Type != EventAppointmentCanceled {
		t.Fatalf("expected canceled event, got %s", last.Type)
	}

	// The window must be bookable again.
	if _, err := svc.Book(context.Background(), BookRequest{OrderID: "order-2", CalendarID: "cal-1", SlotTime: slot}); err != nil {
		t.Fatalf("rebooking released slot failed: %v", err)
	}
}

func TestCancel_TerminalStatusRejected(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 30)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: day.Add(10 * time.Hour)})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), appt.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double cancel, got %v", err)
	}
}

func TestReschedule_MovesBlockingPeriod(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 45)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: day.Add(10 * time.Hour)})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	oldPeriodID := appt.TimeperiodID()

	newSlot := day.Add(14 * time.Hour)
	moved, err := svc.Reschedule(context.Background(), appt.ID, newSlot)
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if !moved.From.Equal(newSlot) || !moved.To.Equal(newSlot.Add(45*time.Minute)) {
		t.Fatalf("wrong window after reschedule: %v - %v", moved.From, moved.To)
	}
	if moved.TimeperiodID() == oldPeriodID {
		t.Fatal("expected a fresh blocking period, old one was reused")
	}
	if _, err := store.GetTimeperiod(context.Background(), oldPeriodID); !errors.Is(err, ErrTimeperiodNotFound) {
		t.Fatal("old blocking period still present")
	}
	period, err := store.GetTimeperiod(context.Background(), moved.TimeperiodID())
	if err != nil {
		t.Fatalf("new blocking period missing: %v", err)
	}
	if !period.From.Equal(newSlot) {
		t.Fatalf("new period starts at %v, want %v", period.From, newSlot)
	}
}

func TestReschedule_FailedValidationKeepsOriginalWindow(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 30)
	svc := newTestService(store)

	slot := day.Add(10 * time.Hour)
	appt, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: slot})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	// Target outside working hours.
	_, err = svc.Reschedule(context.Background(), appt.ID, day.Add(20*time.Hour))
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}

	kept, err := store.GetAppointment(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("appointment lost: %v", err)
	}
	if !kept.From.Equal(slot) {
		t.Fatalf("appointment window moved despite failure: %v", kept.From)
	}
	if _, err := store.GetTimeperiod(context.Background(), appt.TimeperiodID()); err != nil {
		t.Fatalf("blocking period lost on failed reschedule: %v", err)
	}
}

func TestCancelByOrder_OnlyScheduled(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 30)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: day.Add(10 * time.Hour)})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if err := svc.CancelByOrder(context.Background(), "order-1"); err != nil {
		t.Fatalf("cancel by order failed: %v", err)
	}
	got, _ := store.GetAppointment(context.Background(), appt.ID)
	if got.Status != model.AppointmentCanceled {
		t.Fatalf("expected canceled, got %s", got.Status)
	}

	// Second run is a no-op, not an error.
	if err := svc.CancelByOrder(context.Background(), "order-1"); err != nil {
		t.Fatalf("idempotent cancel by order failed: %v", err)
	}
}

func TestGetLocationAvailability_UnionAcrossCalendars(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	// cal-1 works mornings, cal-2 afternoons.
	store.calendars["cal-1"] = model.Calendar{ID: "cal-1", LocationID: "loc-1", Name: "Chair 1"}
	store.calendars["cal-2"] = model.Calendar{ID: "cal-2", LocationID: "loc-1", Name: "Chair 2"}
	store.periods["p1"] = model.Timeperiod{ID: "p1", CalendarID: "cal-1", Type: model.TimeperiodWorkingHour, From: day.Add(9 * time.Hour), To: day.Add(12 * time.Hour)}
	store.periods["p2"] = model.Timeperiod{ID: "p2", CalendarID: "cal-2", Type: model.TimeperiodWorkingHour, From: day.Add(13 * time.Hour), To: day.Add(17 * time.Hour)}
	svc := newTestService(store)

	days, err := svc.GetLocationAvailability(context.Background(), "loc-1", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("location availability failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	// 3h morning + 4h afternoon at 15 minutes.
	if got := len(days[0].Slots); got != 12+16 {
		t.Fatalf("expected 28 slots, got %d", got)
	}

	_, err = svc.GetLocationAvailability(context.Background(), "loc-empty", day, day.Add(24*time.Hour))
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestDeleteTimeperiod_BookingDerivedRejected(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	seedOrder(store, "order-1", 30)
	svc := newTestService(store)

	appt, err := svc.Book(context.Background(), BookRequest{OrderID: "order-1", CalendarID: "cal-1", SlotTime: day.Add(10 * time.Hour)})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if err := svc.DeleteTimeperiod(context.Background(), appt.TimeperiodID()); !errors.Is(err, ErrTimeperiodManaged) {
		t.Fatalf("expected ErrTimeperiodManaged, got %v", err)
	}

	period, err := svc.CreateTimeperiod(context.Background(), "cal-1", model.TimeperiodBreaktime, day.Add(12*time.Hour), day.Add(13*time.Hour), "Lunch")
	if err != nil {
		t.Fatalf("create timeperiod failed: %v", err)
	}
	if err := svc.DeleteTimeperiod(context.Background(), period.ID); err != nil {
		t.Fatalf("delete admin timeperiod failed: %v", err)
	}
}

func TestCreateTimeperiod_Validation(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	seedCalendar(store, "cal-1", day)
	svc := newTestService(store)

	if _, err := svc.CreateTimeperiod(context.Background(), "cal-1", "vacation", day, day.Add(time.Hour), ""); err == nil {
		t.Fatal("expected unknown type to be rejected")
	}
	if _, err := svc.CreateTimeperiod(context.Background(), "cal-1", model.TimeperiodOff, day.Add(time.Hour), day, ""); !errors.Is(err, errInvalidPeriodInterval) {
		t.Fatalf("expected interval validation error, got %v", err)
	}
	if _, err := svc.CreateTimeperiod(context.Background(), "ghost", model.TimeperiodOff, day, day.Add(time.Hour), ""); !errors.Is(err, ErrCalendarNotFound) {
		t.Fatalf("expected ErrCalendarNotFound, got %v", err)
	}
}
