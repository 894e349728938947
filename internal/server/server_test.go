package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pkk-kandri/kandri-events/internal/auth"
	"github.com/pkk-kandri/kandri-events/internal/model"
	"github.com/pkk-kandri/kandri-events/internal/notify"
	"github.com/pkk-kandri/kandri-events/internal/reminder"
	"github.com/pkk-kandri/kandri-events/internal/store"
	"github.com/pkk-kandri/kandri-events/internal/testutil"
)

const (
	testSecret       = "super-secret-jwt-token-with-at-least-32-characters"
	coordinatorPhone = "6287878099411"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	sender *testutil.Sender
	token  string
}

func newTestServer(t *testing.T, cronSecret string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	sender := &testutil.Sender{}
	logger := zap.NewNop()

	reminders := store.NewReminderStore(db)
	dispatcher := notify.New(sender, reminders, logger)
	// 2025-06-09 07:00 in Jakarta.
	clock := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	scheduler := reminder.New(reminders, sender, time.FixedZone("WIB", 7*60*60), logger,
		reminder.WithClock(func() time.Time { return clock }))

	srv := New(Config{
		CoordinatorPhone: coordinatorPhone,
		CronSecret:       cronSecret,
	}, store.NewEventStore(db), reminders, dispatcher, scheduler, auth.NewVerifier(testSecret, "authenticated"), logger)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Email: "admin@pkkkandri.id",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return &testServer{router: srv.Router(), db: db, sender: sender, token: token}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func rapatBulanan() map[string]string {
	return map[string]string{
		"title":       "Rapat Bulanan",
		"date":        "2025-06-10",
		"time":        "09:00 - 12:00 WIB",
		"location":    "Balai Desa Kandri",
		"description": "Rapat rutin bulanan pengurus PKK",
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	if rec := ts.do(t, http.MethodGet, "/health", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEventRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t, "")
	for _, path := range []string{"/events", "/events/overview"} {
		if rec := ts.do(t, http.MethodGet, path, nil, ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s without token: status = %d", path, rec.Code)
		}
	}
	if rec := ts.do(t, http.MethodPost, "/send-whatsapp", map[string]string{"phone": "1", "message": "x"}, "bad"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("send-whatsapp with bad token: status = %d", rec.Code)
	}
}

func TestCreateEventAnnouncesAndSchedulesReminder(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/events", rapatBulanan(), ts.token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Event        EventResponse      `json:"event"`
		Notification NotificationStatus `json:"notification"`
	}
	decode(t, rec, &resp)
	if resp.Event.Title != "Rapat Bulanan" || resp.Event.Date != "2025-06-10" || !resp.Notification.Sent {
		t.Fatalf("unexpected response: %+v", resp)
	}

	sent := ts.sender.Messages()
	if len(sent) != 1 || sent[0].Target != coordinatorPhone {
		t.Fatalf("expected one announcement to the coordinator, got %+v", sent)
	}

	var reminders []model.Reminder
	if err := ts.db.Where("event_id = ?", resp.Event.ID).Find(&reminders).Error; err != nil {
		t.Fatalf("load reminders: %v", err)
	}
	if len(reminders) != 1 || model.FormatDate(reminders[0].ReminderDate) != "2025-06-09" || reminders[0].Sent {
		t.Fatalf("unexpected reminders: %+v", reminders)
	}
}

func TestCreateEventKeepsEventWhenAnnouncementFails(t *testing.T) {
	ts := newTestServer(t, "")
	ts.sender.Status = http.StatusInternalServerError

	rec := ts.do(t, http.MethodPost, "/events", rapatBulanan(), ts.token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Notification NotificationStatus `json:"notification"`
	}
	decode(t, rec, &resp)
	if resp.Notification.Sent || resp.Notification.Error == "" {
		t.Fatalf("notification failure not reported: %+v", resp.Notification)
	}

	var events, reminders int64
	ts.db.Model(&model.Event{}).Count(&events)
	ts.db.Model(&model.Reminder{}).Count(&reminders)
	if events != 1 || reminders != 0 {
		t.Fatalf("events = %d reminders = %d, want 1 and 0", events, reminders)
	}
}

func TestCreateEventValidation(t *testing.T) {
	ts := newTestServer(t, "")

	body := rapatBulanan()
	body["title"] = "   "
	body["date"] = "10/06/2025"
	delete(body, "location")

	rec := ts.do(t, http.MethodPost, "/events", body, ts.token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &resp)
	for _, field := range []string{"title", "date", "location"} {
		if resp.Fields[field] == "" {
			t.Fatalf("missing field error for %q: %+v", field, resp.Fields)
		}
	}

	var count int64
	ts.db.Model(&model.Event{}).Count(&count)
	if count != 0 || len(ts.sender.Messages()) != 0 {
		t.Fatalf("invalid request must not write or send")
	}
}

func TestEventCRUD(t *testing.T) {
	ts := newTestServer(t, "")
	event := testutil.SeedEvent(t, ts.db, "Posyandu", "2025-06-15")
	path := "/events/" + event.ID.String()

	rec := ts.do(t, http.MethodGet, path, nil, ts.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	update := rapatBulanan()
	update["title"] = "Posyandu Balita"
	rec = ts.do(t, http.MethodPut, path, update, ts.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body = %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Event EventResponse `json:"event"`
	}
	decode(t, rec, &updated)
	if updated.Event.Title != "Posyandu Balita" || updated.Event.Date != "2025-06-10" {
		t.Fatalf("unexpected update result: %+v", updated.Event)
	}

	rec = ts.do(t, http.MethodGet, "/events", nil, ts.token)
	var list struct {
		Events []EventResponse `json:"events"`
	}
	decode(t, rec, &list)
	if len(list.Events) != 1 {
		t.Fatalf("list = %+v", list.Events)
	}

	if rec = ts.do(t, http.MethodDelete, path, nil, ts.token); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec = ts.do(t, http.MethodGet, path, nil, ts.token); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
	if rec = ts.do(t, http.MethodPut, path, update, ts.token); rec.Code != http.StatusNotFound {
		t.Fatalf("update after delete status = %d", rec.Code)
	}
	if rec = ts.do(t, http.MethodGet, "/events/not-a-uuid", nil, ts.token); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}
}

func TestOverviewAndPublicUpcoming(t *testing.T) {
	ts := newTestServer(t, "")
	for title, date := range map[string]string{
		"Lalu 1":   "2025-05-01",
		"Lalu 2":   "2025-06-08",
		"Hari Ini": "2025-06-09",
		"Besok":    "2025-06-10",
		"Juli":     "2025-07-01",
		"Agustus":  "2025-08-17",
	} {
		testutil.SeedEvent(t, ts.db, title, date)
	}

	rec := ts.do(t, http.MethodGet, "/events/overview", nil, ts.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var overview struct {
		Date     string          `json:"date"`
		Upcoming []EventResponse `json:"upcoming"`
		Past     []EventResponse `json:"past"`
	}
	decode(t, rec, &overview)
	if overview.Date != "2025-06-09" {
		t.Fatalf("date = %s", overview.Date)
	}
	if len(overview.Upcoming) != 3 || overview.Upcoming[0].Title != "Hari Ini" || overview.Upcoming[2].Title != "Juli" {
		t.Fatalf("upcoming = %+v", overview.Upcoming)
	}
	if len(overview.Past) != 2 || overview.Past[0].Title != "Lalu 2" {
		t.Fatalf("past = %+v", overview.Past)
	}

	rec = ts.do(t, http.MethodGet, "/public/events/upcoming", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("public status = %d", rec.Code)
	}
	var public struct {
		Events []EventResponse `json:"events"`
	}
	decode(t, rec, &public)
	if len(public.Events) != 3 {
		t.Fatalf("public upcoming = %+v", public.Events)
	}
}

func TestSendWhatsApp(t *testing.T) {
	ts := newTestServer(t, "")
	event := testutil.SeedEvent(t, ts.db, "Rapat Bulanan", "2025-06-10")

	rec := ts.do(t, http.MethodPost, "/send-whatsapp", map[string]string{"message": "halo"}, ts.token)
	if rec.Code != http.StatusBadRequest || !bytes.Contains(rec.Body.Bytes(), []byte("Phone number and message are required")) {
		t.Fatalf("missing phone: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/send-whatsapp", map[string]string{
		"phone":     coordinatorPhone,
		"message":   "halo",
		"eventId":   event.ID.String(),
		"eventDate": "2025-06-10",
	}, ts.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var ok struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
		Message string          `json:"message"`
	}
	decode(t, rec, &ok)
	if !ok.Success || ok.Message != "WhatsApp message sent successfully" || len(ok.Result) == 0 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	reminders, err := store.NewReminderStore(ts.db).ListByEvent(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(reminders) != 1 || model.FormatDate(reminders[0].ReminderDate) != "2025-06-09" {
		t.Fatalf("reminders = %+v", reminders)
	}
}

func TestSendWhatsAppGatewayRejection(t *testing.T) {
	ts := newTestServer(t, "")
	ts.sender.Status = http.StatusUnauthorized
	ts.sender.Payload = `{"status":false,"reason":"invalid token"}`

	rec := ts.do(t, http.MethodPost, "/send-whatsapp", map[string]string{"phone": "62811", "message": "halo"}, ts.token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want gateway status", rec.Code)
	}
	var body struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
		Status  int             `json:"status"`
	}
	decode(t, rec, &body)
	if body.Error != "Failed to send WhatsApp message" || body.Status != http.StatusUnauthorized || string(body.Details) != `{"status":false,"reason":"invalid token"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCheckReminders(t *testing.T) {
	ts := newTestServer(t, "cron-secret")
	event := testutil.SeedEvent(t, ts.db, "Rapat Bulanan", "2025-06-10")
	if err := ts.db.Create(&model.Reminder{
		EventID:      &event.ID,
		ReminderDate: model.CalendarDate(testutil.Date(t, "2025-06-09")),
		Phone:        coordinatorPhone,
	}).Error; err != nil {
		t.Fatalf("seed reminder: %v", err)
	}

	if rec := ts.do(t, http.MethodGet, "/check-reminders", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing cron secret: status = %d", rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/check-reminders", nil, "cron-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success       bool              `json:"success"`
		SentReminders int               `json:"sent_reminders"`
		Results       []reminder.Result `json:"results"`
		Date          string            `json:"date"`
	}
	decode(t, rec, &body)
	if !body.Success || body.SentReminders != 1 || body.Date != "2025-06-09" || !body.Results[0].Success {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/check-reminders", nil, "cron-secret")
	decode(t, rec, &body)
	if body.SentReminders != 0 {
		t.Fatalf("second run sent %d reminders", body.SentReminders)
	}
}

func TestCheckRemindersStoreFailure(t *testing.T) {
	ts := newTestServer(t, "")
	sqlDB, err := ts.db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.Close()

	rec := ts.do(t, http.MethodGet, "/check-reminders", nil, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	decode(t, rec, &body)
	if body.Error != "Failed to check reminders" || body.Details == "" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func cancelledRequest(t *testing.T, method, path string, body interface{}, bearer string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(method, path, &buf).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func TestCreateEventCompletesAfterClientDisconnect(t *testing.T) {
	ts := newTestServer(t, "")

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, cancelledRequest(t, http.MethodPost, "/events", rapatBulanan(), ts.token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var reminders int64
	ts.db.Model(&model.Reminder{}).Count(&reminders)
	if reminders != 1 || len(ts.sender.Messages()) != 1 {
		t.Fatalf("reminders = %d sends = %d, want 1 and 1", reminders, len(ts.sender.Messages()))
	}
}

func TestCheckRemindersCompletesAfterClientDisconnect(t *testing.T) {
	ts := newTestServer(t, "")
	for _, title := range []string{"Rapat Bulanan", "Posyandu"} {
		event := testutil.SeedEvent(t, ts.db, title, "2025-06-10")
		if err := ts.db.Create(&model.Reminder{
			EventID:      &event.ID,
			ReminderDate: model.CalendarDate(testutil.Date(t, "2025-06-09")),
			Phone:        coordinatorPhone,
		}).Error; err != nil {
			t.Fatalf("seed reminder: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, cancelledRequest(t, http.MethodGet, "/check-reminders", nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var unsent int64
	ts.db.Model(&model.Reminder{}).Where("sent = ?", false).Count(&unsent)
	if unsent != 0 || len(ts.sender.Messages()) != 2 {
		t.Fatalf("unsent = %d sends = %d, want 0 and 2", unsent, len(ts.sender.Messages()))
	}
}

func TestGetEventIncludesReminders(t *testing.T) {
	ts := newTestServer(t, "")
	event := testutil.SeedEvent(t, ts.db, "Rapat Bulanan", "2025-06-10")
	if err := ts.db.Create(&model.Reminder{
		EventID:      &event.ID,
		ReminderDate: model.CalendarDate(testutil.Date(t, "2025-06-09")),
		Phone:        coordinatorPhone,
	}).Error; err != nil {
		t.Fatalf("seed reminder: %v", err)
	}

	rec := ts.do(t, http.MethodGet, "/events/"+event.ID.String(), nil, ts.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Event     EventResponse      `json:"event"`
		Reminders []ReminderResponse `json:"reminders"`
	}
	decode(t, rec, &body)
	if body.Event.ID != event.ID || len(body.Reminders) != 1 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if r := body.Reminders[0]; r.ReminderDate != "2025-06-09" || r.Sent || r.Phone != coordinatorPhone {
		t.Fatalf("unexpected reminder: %+v", r)
	}
}
