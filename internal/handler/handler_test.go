package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/construction-accounting/internal/metrics"
	"github.com/Dan9191/construction-accounting/internal/middleware"
	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/service"
)

// fakeStore implements the store methods the routes under test reach.
// Calling anything else panics on the nil embedded interfaces.
type fakeStore struct {
	service.PlanStore
	service.UserStore

	nextID       int64
	plans        map[int64]models.PaymentPlan
	installments map[int64]models.Installment
	users        map[string]models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:        map[int64]models.PaymentPlan{},
		installments: map[int64]models.Installment{},
		users:        map[string]models.User{},
	}
}

func (f *fakeStore) GetCustomer(_ context.Context, id int64) (*models.Customer, error) {
	if id != 1 {
		return nil, fmt.Errorf("customer %d: %w", id, models.ErrNotFound)
	}
	return &models.Customer{ID: 1, Name: "Kaya İnşaat"}, nil
}

func (f *fakeStore) CreatePlan(_ context.Context, plan *models.PaymentPlan, installments []models.Installment) error {
	f.nextID++
	plan.ID = f.nextID
	for i := range installments {
		f.nextID++
		installments[i].ID = f.nextID
		installments[i].PaymentPlanID = plan.ID
		f.installments[installments[i].ID] = installments[i]
	}
	plan.Installments = installments
	f.plans[plan.ID] = *plan
	return nil
}

func (f *fakeStore) GetPlan(_ context.Context, id int64) (*models.PaymentPlan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, fmt.Errorf("payment plan %d: %w", id, models.ErrNotFound)
	}
	p.Installments = nil
	return &p, nil
}

func (f *fakeStore) ListInstallmentsByPlan(_ context.Context, planID int64) ([]models.Installment, error) {
	var out []models.Installment
	for _, inst := range f.installments {
		if inst.PaymentPlanID == planID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentNo < out[j].InstallmentNo })
	return out, nil
}

func (f *fakeStore) ListPendingDueBefore(_ context.Context, before time.Time) ([]models.Installment, error) {
	var out []models.Installment
	for _, inst := range f.installments {
		if inst.Status == models.PaymentStatusPending && inst.DueDate.Before(before) {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (f *fakeStore) GetInstallment(_ context.Context, id int64) (*models.Installment, error) {
	inst, ok := f.installments[id]
	if !ok {
		return nil, fmt.Errorf("installment %d: %w", id, models.ErrNotFound)
	}
	return &inst, nil
}

func (f *fakeStore) MarkInstallmentPaid(_ context.Context, id int64, rec models.PaymentRecord) (*models.Installment, error) {
	inst := f.installments[id]
	if inst.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("installment %d: %w", id, models.ErrInvalidTransition)
	}
	inst.Status = models.PaymentStatusPaid
	inst.PaymentDate = &rec.PaymentDate
	inst.PaymentType = rec.PaymentType
	f.installments[id] = inst
	return &inst, nil
}

func (f *fakeStore) CancelInstallment(_ context.Context, id int64, notes string) (*models.Installment, error) {
	inst := f.installments[id]
	if inst.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("installment %d: %w", id, models.ErrInvalidTransition)
	}
	inst.Status = models.PaymentStatusCancelled
	if notes != "" {
		inst.Notes = notes
	}
	f.installments[id] = inst
	return &inst, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := f.users[u.Email]; ok {
		return fmt.Errorf("create user: %w", models.ErrConflict)
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.Email] = *u
	return nil
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	return &u, nil
}

type testServer struct {
	router *mux.Router
	token  string
}

var today = time.Date(2024, 4, 20, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg := prometheus.NewRegistry()
	store := newFakeStore()

	auth := service.NewAuthService(store, log, "test-secret")
	payments := service.NewPaymentService(store, log, metrics.New(reg)).WithClock(func() time.Time { return today })
	h := NewHandler(Services{Auth: auth, Payments: payments}, log, 7)
	h.now = func() time.Time { return today }

	ts := &testServer{router: NewRouter(h, middleware.AuthMiddleware(auth, log, PublicPaths), metrics.Handler(reg))}

	rec := ts.do(t, http.MethodPost, "/register", `{"username":"cashier","email":"cashier@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPost, "/login", `{"email":"cashier@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	ts.token = login.Token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

const planBody = `{
	"customer_id": 1,
	"title": "Block C, flat 12",
	"total_amount": "12000",
	"down_payment": "0",
	"interest_rate": "0",
	"number_of_installments": 12,
	"start_date": "2024-01-15",
	"payment_day": 15
}`

func createPlan(t *testing.T, ts *testServer) models.PaymentPlan {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/plans", planBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var plan models.PaymentPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	require.Len(t, plan.Installments, 12)
	return plan
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token
	ts.token = ""

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/plans/1", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/metrics", "").Code)

	rec := ts.do(t, http.MethodPost, "/login", `{"email":"cashier@example.com","password":"nope-nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.token = token
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/plans/1", "").Code)
}

func TestPlanLifecycle(t *testing.T) {
	ts := newTestServer(t)
	plan := createPlan(t, ts)
	assert.Equal(t, "1000", plan.Installments[0].Amount.String())
	assert.Equal(t, "2024-01-15", plan.Installments[0].DueDate.Format(time.DateOnly))

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/plans/%d", plan.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Installments []struct {
			ID     int64 `json:"id"`
			IsLate bool  `json:"is_late"`
		} `json:"installments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Installments, 12)
	assert.True(t, got.Installments[3].IsLate, "due 2024-04-15, today 2024-04-20")
	assert.False(t, got.Installments[4].IsLate)

	first := plan.Installments[0].ID
	payPath := fmt.Sprintf("/installments/%d/pay", first)
	rec = ts.do(t, http.MethodPost, payPath, `{"payment_type":"Cash","reference":"R-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPost, payPath, `{"payment_type":"Cash"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid status transition")

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/plans/%d/summary", plan.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.PlanSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.CompletedInstallments)
	assert.Equal(t, 3, summary.LateInstallments)
	assert.Equal(t, "11000", summary.RemainingBalance.String())

	rec = ts.do(t, http.MethodGet, "/installments/late?as_of=2024-04-20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var late []installmentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &late))
	require.Len(t, late, 3)
	assert.Equal(t, 2, late[0].InstallmentNo)
	assert.Equal(t, 65, late[0].DaysLate)
	assert.True(t, late[2].IsLate)
}

func TestScheduleXMLRoute(t *testing.T) {
	ts := newTestServer(t)
	plan := createPlan(t, ts)

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/plans/%d/schedule.xml", plan.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, 12, strings.Count(rec.Body.String(), "<Installment "))
	assert.Contains(t, rec.Body.String(), "<RemainingBalance>12000.00</RemainingBalance>")
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"malformed json", http.MethodPost, "/plans", `{"customer_id":`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/plans", strings.Replace(planBody, "2024-01-15", "15.01.2024", 1), http.StatusBadRequest},
		{"invalid terms", http.MethodPost, "/plans", strings.Replace(planBody, `"number_of_installments": 12`, `"number_of_installments": 0`, 1), http.StatusBadRequest},
		{"preview with too many installments", http.MethodPost, "/plans/preview", strings.Replace(planBody, `"number_of_installments": 12`, `"number_of_installments": 2000000000`, 1), http.StatusBadRequest},
		{"rate beyond column", http.MethodPost, "/plans", strings.Replace(planBody, `"interest_rate": "0"`, `"interest_rate": "1000"`, 1), http.StatusBadRequest},
		{"unknown customer", http.MethodPost, "/plans", strings.Replace(planBody, `"customer_id": 1`, `"customer_id": 2`, 1), http.StatusNotFound},
		{"unknown installment", http.MethodPost, "/installments/999/pay", `{"payment_type":"Cash"}`, http.StatusNotFound},
		{"bad as_of", http.MethodGet, "/installments/late?as_of=yesterday", "", http.StatusBadRequest},
		{"duplicate user", http.MethodPost, "/register", `{"username":"x","email":"cashier@example.com","password":"correct-horse"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestPreviewSchedule(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/plans/preview", planBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entries []scheduleEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 12)
	assert.Equal(t, 12, entries[11].InstallmentNo)
	assert.Equal(t, "2024-12-15", entries[11].DueDate.Format(time.DateOnly))
}

func TestCancelInstallmentBody(t *testing.T) {
	ts := newTestServer(t)
	plan := createPlan(t, ts)

	cancel := func(t *testing.T, id int64, body io.Reader) *httptest.ResponseRecorder {
		t.Helper()
		// readers other than bytes/strings leave ContentLength at -1, as with chunked uploads
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/installments/%d/cancel", id), body)
		req.Header.Set("Authorization", "Bearer "+ts.token)
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("no body", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/installments/%d/cancel", plan.Installments[0].ID), "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("empty body of unknown length", func(t *testing.T) {
		rec := cancel(t, plan.Installments[1].ID, io.MultiReader())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var inst models.Installment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inst))
		assert.Equal(t, models.PaymentStatusCancelled, inst.Status)
	})

	t.Run("notes of unknown length", func(t *testing.T) {
		rec := cancel(t, plan.Installments[2].ID, io.MultiReader(strings.NewReader(`{"notes":"unit returned"}`)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var inst models.Installment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inst))
		assert.Equal(t, "unit returned", inst.Notes)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := cancel(t, plan.Installments[3].ID, io.MultiReader(strings.NewReader(`{"notes":`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
