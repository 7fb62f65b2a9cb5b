package tool

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
	modelx "github.com/Satyam6024/superbryn-agent/agent/model"
	schedulex "github.com/Satyam6024/superbryn-agent/agent/schedule"
)

// fakeStore is an in-memory contract.Store for tool tests.
type fakeStore struct {
	users        map[string]*modelx.User
	appointments map[string]*modelx.Appointment
	nextID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]*modelx.User),
		appointments: make(map[string]*modelx.Appointment),
	}
}

func (f *fakeStore) GetUserByPhone(_ context.Context, phone string) (*modelx.User, error) {
	return f.users[phone], nil
}

func (f *fakeStore) CreateOrUpdateUser(_ context.Context, phone, name string) (*modelx.User, error) {
	u, ok := f.users[phone]
	if !ok {
		u = &modelx.User{PhoneNumber: phone, Preferences: map[string]any{}}
		f.users[phone] = u
	}
	if name != "" {
		u.Name = name
	}
	u.LastInteraction = time.Now()
	return u, nil
}

func (f *fakeStore) GetAppointmentsByPhone(_ context.Context, phone string, status modelx.AppointmentStatus, includePast bool) ([]modelx.Appointment, error) {
	var out []modelx.Appointment
	for _, a := range f.appointments {
		if a.UserPhone != phone {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		if !includePast && a.Date < toolTestNow.Format("2006-01-02") {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) GetAppointmentByID(_ context.Context, id string) (*modelx.Appointment, error) {
	return f.appointments[id], nil
}

func (f *fakeStore) BookedSlots(_ context.Context) ([]modelx.SlotKey, error) {
	var keys []modelx.SlotKey
	for _, a := range f.appointments {
		if a.Status == modelx.StatusScheduled {
			keys = append(keys, modelx.SlotKey{Date: a.Date, Time: a.Time})
		}
	}
	return keys, nil
}

func (f *fakeStore) CheckSlotAvailable(_ context.Context, date, timeStr string) (bool, error) {
	for _, a := range f.appointments {
		if a.Date == date && a.Time == timeStr && a.Status == modelx.StatusScheduled {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeStore) CreateAppointment(ctx context.Context, apt *modelx.Appointment) (*modelx.Appointment, error) {
	available, _ := f.CheckSlotAvailable(ctx, apt.Date, apt.Time)
	if !available {
		return nil, contractx.ErrSlotTaken
	}
	f.nextID++
	apt.ID = "apt-" + strconv.Itoa(f.nextID)
	apt.Status = modelx.StatusScheduled
	f.appointments[apt.ID] = apt
	if u, ok := f.users[apt.UserPhone]; ok {
		u.TotalAppointments++
	}
	return apt, nil
}

func (f *fakeStore) CancelAppointment(_ context.Context, id string) (*modelx.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, contractx.ErrNotFound
	}
	a.Status = modelx.StatusCancelled
	return a, nil
}

func (f *fakeStore) ModifyAppointment(_ context.Context, id, newDate, newTime string) (*modelx.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, contractx.ErrNotFound
	}
	if newDate != "" {
		a.Date = newDate
	}
	if newTime != "" {
		a.Time = newTime
	}
	return a, nil
}

func (f *fakeStore) LogToolCall(context.Context, *modelx.ToolCallLog) {}

func (f *fakeStore) LogEvent(context.Context, *modelx.EventLog) {}

func (f *fakeStore) SaveConversationSummary(context.Context, *modelx.ConversationSummary) {}

func (f *fakeStore) GetConversationHistory(context.Context, string, int) ([]modelx.ConversationSummary, error) {
	return nil, nil
}

func (f *fakeStore) GetAllAppointments(context.Context, int, int) ([]modelx.Appointment, error) {
	var out []modelx.Appointment
	for _, a := range f.appointments {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) CountAppointments(context.Context) (int, error) {
	return len(f.appointments), nil
}

func (f *fakeStore) CountAppointmentsByStatus(context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, a := range f.appointments {
		counts[string(a.Status)]++
	}
	return counts, nil
}

var _ contractx.Store = (*fakeStore)(nil)

var toolTestNow = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

func newTestTools(store contractx.Store) *Tools {
	gen := schedulex.NewGenerator(schedulex.Config{
		BusinessHoursStart:  8,
		BusinessHoursEnd:    20,
		BusinessDays:        []int{0, 1, 2, 3, 4, 5},
		BookingAdvanceDays:  30,
		SlotDurationMinutes: 30,
	}).WithClock(func() time.Time { return toolTestNow })

	tools := New(store, gen)
	tools.InitConversation("test-session", "UTC")
	return tools
}

func TestIdentifyUserNewUser(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tools := newTestTools(store)

	result := tools.IdentifyUser(context.Background(), "(555) 123-4567")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Verbal != "Great, I've got your number. How can I help you today?" {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
	if !tools.State().Identified {
		t.Fatal("state not marked identified")
	}
	if tools.State().UserPhone != "+15551234567" {
		t.Fatalf("phone not normalized: %q", tools.State().UserPhone)
	}
	if store.users["+15551234567"] == nil {
		t.Fatal("user not created in store")
	}
}

func TestIdentifyUserReturning(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.users["+15551234567"] = &modelx.User{
		PhoneNumber:       "+15551234567",
		Name:              "Alex",
		TotalAppointments: 2,
	}
	tools := newTestTools(store)

	result := tools.IdentifyUser(context.Background(), "5551234567")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if !strings.Contains(result.Verbal, "Welcome back, Alex!") {
		t.Fatalf("missing name greeting: %q", result.Verbal)
	}
	if !strings.Contains(result.Verbal, "2 appointments") {
		t.Fatalf("missing appointment count: %q", result.Verbal)
	}
}

func TestBookAppointmentRequiresIdentification(t *testing.T) {
	t.Parallel()

	tools := newTestTools(newFakeStore())

	result := tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "checkup", 30, "")
	if result.Success {
		t.Fatal("expected failure without identification")
	}
	if result.Verbal != "Before I can book an appointment, I'll need your phone number. What's your phone number?" {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestBookAppointmentSuccess(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tools := newTestTools(store)
	tools.IdentifyUser(context.Background(), "5551234567")

	result := tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "dental checkup", 30, "Sam")
	if !result.Success {
		t.Fatalf("booking failed: %q / %q", result.Error, result.Verbal)
	}
	if !strings.Contains(result.Verbal, "Wednesday, January 03") || !strings.Contains(result.Verbal, "10:00 AM") {
		t.Fatalf("confirmation missing friendly date/time: %q", result.Verbal)
	}
	if !strings.Contains(result.Verbal, "for dental checkup") {
		t.Fatalf("confirmation missing purpose: %q", result.Verbal)
	}
	if len(tools.State().Booked) != 1 {
		t.Fatalf("booking not recorded in state: %+v", tools.State().Booked)
	}
	if store.users["+15551234567"].Name != "Sam" {
		t.Fatal("user name not stored from booking")
	}
}

func TestBookAppointmentSlotTaken(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tools := newTestTools(store)
	tools.IdentifyUser(context.Background(), "5551234567")
	tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "", 30, "")

	other := newTestTools(store)
	other.IdentifyUser(context.Background(), "5559876543")
	result := other.BookAppointment(context.Background(), "2024-01-03", "10:00", "", 30, "")
	if result.Success {
		t.Fatal("expected slot-taken failure")
	}
	if result.Verbal != "I'm sorry, that slot was just taken. Would you like me to find another available time?" {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestBookAppointmentRejectsInvalidSlot(t *testing.T) {
	t.Parallel()

	tools := newTestTools(newFakeStore())
	tools.IdentifyUser(context.Background(), "5551234567")

	result := tools.BookAppointment(context.Background(), "2024-01-07", "10:00", "", 30, "")
	if result.Success {
		t.Fatal("expected Sunday booking to fail")
	}
	if result.Verbal != "That date is not a business day. We're open Monday through Saturday." {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestFetchSlotsSpeaksAvailability(t *testing.T) {
	t.Parallel()

	tools := newTestTools(newFakeStore())

	result := tools.FetchSlots(context.Background(), "", 30)
	if !result.Success {
		t.Fatalf("fetch slots failed: %q", result.Error)
	}
	if !strings.HasPrefix(result.Verbal, "I have some availability for you.") {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
	if !strings.HasSuffix(result.Verbal, "Which time works best?") {
		t.Fatalf("unexpected verbal ending: %q", result.Verbal)
	}
}

func TestFetchSlotsEmptyDate(t *testing.T) {
	t.Parallel()

	tools := newTestTools(newFakeStore())

	// Sunday: closed, no slots.
	result := tools.FetchSlots(context.Background(), "2024-01-07", 30)
	if !result.Success {
		t.Fatalf("fetch slots failed: %q", result.Error)
	}
	if !strings.Contains(result.Verbal, "no available slots on 2024-01-07") {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestCancelAppointmentNotOwned(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	owner := newTestTools(store)
	owner.IdentifyUser(context.Background(), "5551234567")
	booked := owner.BookAppointment(context.Background(), "2024-01-03", "10:00", "", 30, "")
	if !booked.Success {
		t.Fatalf("setup booking failed: %q", booked.Error)
	}
	id := owner.State().LastBooking().ID

	stranger := newTestTools(store)
	stranger.IdentifyUser(context.Background(), "5559876543")
	result := stranger.CancelAppointment(context.Background(), id, "", "")
	if result.Success {
		t.Fatal("expected not-found for someone else's appointment")
	}
	if !strings.Contains(result.Verbal, "couldn't find that appointment") {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestCancelAppointmentByDateTime(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tools := newTestTools(store)
	tools.IdentifyUser(context.Background(), "5551234567")
	tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "", 30, "")

	result := tools.CancelAppointment(context.Background(), "", "2024-01-03", "10:00")
	if !result.Success {
		t.Fatalf("cancel failed: %q / %q", result.Error, result.Verbal)
	}
	if len(tools.State().Cancelled) != 1 {
		t.Fatal("cancellation not recorded in state")
	}
}

func TestCancelPastAppointmentByDateTime(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.appointments["apt-past"] = &modelx.Appointment{
		ID:        "apt-past",
		UserPhone: "+15551234567",
		Date:      "2024-01-01",
		Time:      "10:00",
		Status:    modelx.StatusScheduled,
	}

	tools := newTestTools(store)
	tools.IdentifyUser(context.Background(), "5551234567")

	result := tools.CancelAppointment(context.Background(), "", "2024-01-01", "10:00")
	if result.Success {
		t.Fatal("past appointment should not resolve by date and time")
	}
	if !strings.Contains(result.Verbal, "couldn't find an appointment on 2024-01-01") {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestRebookAfterCancellation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tools := newTestTools(store)
	tools.IdentifyUser(context.Background(), "5551234567")
	tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "", 30, "")

	if blocked := tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "", 30, ""); blocked.Success {
		t.Fatal("occupied slot should not be bookable")
	}

	tools.CancelAppointment(context.Background(), "", "2024-01-03", "10:00")

	rebook := tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "", 30, "")
	if !rebook.Success {
		t.Fatalf("cancelled slot should be bookable again: %q", rebook.Error)
	}
}

func TestModifyAppointmentRequiresChange(t *testing.T) {
	t.Parallel()

	tools := newTestTools(newFakeStore())
	tools.IdentifyUser(context.Background(), "5551234567")

	result := tools.ModifyAppointment(context.Background(), "some-id", "", "", "", "")
	if result.Success {
		t.Fatal("expected failure without new date or time")
	}
	if !strings.Contains(result.Verbal, "new date or time") {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestModifyAppointmentUnknownID(t *testing.T) {
	t.Parallel()

	tools := newTestTools(newFakeStore())
	tools.IdentifyUser(context.Background(), "5551234567")

	result := tools.ModifyAppointment(context.Background(), "missing-id", "", "", "2024-01-04", "")
	if result.Success {
		t.Fatal("expected failure for unknown id")
	}
	if result.Verbal != "I couldn't find that appointment." {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestModifyAppointmentMovesSlot(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tools := newTestTools(store)
	tools.IdentifyUser(context.Background(), "5551234567")
	tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "", 30, "")
	id := tools.State().LastBooking().ID

	result := tools.ModifyAppointment(context.Background(), id, "", "", "2024-01-04", "11:00")
	if !result.Success {
		t.Fatalf("modify failed: %q / %q", result.Error, result.Verbal)
	}
	if !strings.Contains(result.Verbal, "2024-01-04 at 11:00") {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
	mod := tools.State().LastModification()
	if mod == nil || mod.NewDate != "2024-01-04" || mod.OldDate != "2024-01-03" {
		t.Fatalf("modification not recorded: %+v", mod)
	}
}

func TestEndConversationFarewellPriority(t *testing.T) {
	t.Parallel()

	store := newFakeStore()

	t.Run("after booking", func(t *testing.T) {
		t.Parallel()
		tools := newTestTools(store)
		tools.IdentifyUser(context.Background(), "5550000001")
		tools.BookAppointment(context.Background(), "2024-01-03", "12:00", "", 30, "")

		result := tools.EndConversation("user_requested")
		if !strings.Contains(result.Verbal, "Your appointment is confirmed for 2024-01-03 at 12:00") {
			t.Fatalf("unexpected farewell: %q", result.Verbal)
		}
		if !tools.State().ShouldEnd {
			t.Fatal("ShouldEnd not set")
		}
	})

	t.Run("no actions", func(t *testing.T) {
		t.Parallel()
		tools := newTestTools(newFakeStore())

		result := tools.EndConversation("")
		if result.Verbal != "Thank you for calling. Have a great day!" {
			t.Fatalf("unexpected farewell: %q", result.Verbal)
		}
	})
}

func TestRetrieveAppointmentsEmpty(t *testing.T) {
	t.Parallel()

	tools := newTestTools(newFakeStore())
	tools.IdentifyUser(context.Background(), "5551234567")

	result := tools.RetrieveAppointments(context.Background(), false, "")
	if !result.Success {
		t.Fatalf("retrieve failed: %q", result.Error)
	}
	if result.Verbal != "You don't have any appointments scheduled. Would you like to book one?" {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
}

func TestRetrieveAppointmentsSingle(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tools := newTestTools(store)
	tools.IdentifyUser(context.Background(), "5551234567")
	tools.BookAppointment(context.Background(), "2024-01-03", "10:00", "checkup", 30, "")

	result := tools.RetrieveAppointments(context.Background(), false, "")
	if !result.Success {
		t.Fatalf("retrieve failed: %q", result.Error)
	}
	if !strings.HasPrefix(result.Verbal, "You have one appointment:") {
		t.Fatalf("unexpected verbal: %q", result.Verbal)
	}
	if !strings.Contains(result.Verbal, "for checkup") {
		t.Fatalf("missing purpose: %q", result.Verbal)
	}
}
