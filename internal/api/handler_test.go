package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mtlprog/lendstat/internal/domain"
	"github.com/mtlprog/lendstat/internal/snapshot"
)

const testAccount = "0x1111111111111111111111111111111111111111"

type mockSnapshotService struct {
	snapshots     []snapshot.Snapshot
	generateErr   error
	listErr       error
	lastListLimit int
	generated     []string
}

func (m *mockSnapshotService) Generate(_ context.Context, account string, _ time.Time) (domain.Portfolio, error) {
	m.generated = append(m.generated, account)
	if m.generateErr != nil {
		return domain.Portfolio{}, m.generateErr
	}
	return domain.Portfolio{Account: account}, nil
}

func (m *mockSnapshotService) GetLatest(_ context.Context, _ string) (*snapshot.Snapshot, error) {
	if len(m.snapshots) == 0 {
		return nil, snapshot.ErrNotFound
	}
	return &m.snapshots[0], nil
}

func (m *mockSnapshotService) GetByDate(_ context.Context, _ string, date time.Time) (*snapshot.Snapshot, error) {
	for _, s := range m.snapshots {
		if s.SnapshotDate.Equal(date) {
			return &s, nil
		}
	}
	return nil, snapshot.ErrNotFound
}

func (m *mockSnapshotService) List(_ context.Context, _ string, limit int) ([]snapshot.Snapshot, error) {
	m.lastListLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit > len(m.snapshots) {
		limit = len(m.snapshots)
	}
	return m.snapshots[:limit], nil
}

func accountRequest(method, target, account string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.SetPathValue("account", account)
	return req
}

func TestGetLatestSnapshotSuccess(t *testing.T) {
	data, _ := json.Marshal(map[string]string{"test": "data"})
	svc := &mockSnapshotService{
		snapshots: []snapshot.Snapshot{
			{ID: 1, AccountID: 1, SnapshotDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Data: data},
		},
	}
	handler := NewHandler(svc)

	w := httptest.NewRecorder()
	handler.GetLatestSnapshot(w, accountRequest(http.MethodGet, "/api/v1/snapshots/"+testAccount+"/latest", testAccount))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var result snapshot.Snapshot
	json.NewDecoder(w.Body).Decode(&result)
	if result.ID != 1 {
		t.Errorf("snapshot ID = %d, want 1", result.ID)
	}
}

func TestGetLatestSnapshotNotFound(t *testing.T) {
	handler := NewHandler(&mockSnapshotService{})

	w := httptest.NewRecorder()
	handler.GetLatestSnapshot(w, accountRequest(http.MethodGet, "/api/v1/snapshots/"+testAccount+"/latest", testAccount))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestInvalidAccountRejected(t *testing.T) {
	handler := NewHandler(&mockSnapshotService{})

	w := httptest.NewRecorder()
	handler.GetLatestSnapshot(w, accountRequest(http.MethodGet, "/api/v1/snapshots/bob/latest", "bob"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetSnapshotByDate(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	svc := &mockSnapshotService{
		snapshots: []snapshot.Snapshot{{ID: 1, SnapshotDate: date, Data: json.RawMessage(`{}`)}},
	}
	handler := NewHandler(svc)

	tests := []struct {
		name string
		date string
		want int
	}{
		{"found", "2024-01-15", http.StatusOK},
		{"missing", "2024-01-16", http.StatusNotFound},
		{"invalid", "not-a-date", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := accountRequest(http.MethodGet, "/api/v1/snapshots/"+testAccount+"/"+tt.date, testAccount)
			req.SetPathValue("date", tt.date)
			w := httptest.NewRecorder()
			handler.GetSnapshotByDate(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestListSnapshotsLimitCappedAt365(t *testing.T) {
	svc := &mockSnapshotService{snapshots: []snapshot.Snapshot{{ID: 1, Data: json.RawMessage(`{}`)}}}
	handler := NewHandler(svc)

	w := httptest.NewRecorder()
	handler.ListSnapshots(w, accountRequest(http.MethodGet, "/api/v1/snapshots/"+testAccount+"?limit=9999", testAccount))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if svc.lastListLimit != 365 {
		t.Errorf("limit passed to service = %d, want 365 (should be capped)", svc.lastListLimit)
	}
}

func TestListSnapshotsNegativeLimit(t *testing.T) {
	svc := &mockSnapshotService{snapshots: []snapshot.Snapshot{
		{ID: 1, Data: json.RawMessage(`{}`)},
		{ID: 2, Data: json.RawMessage(`{}`)},
	}}
	handler := NewHandler(svc)

	// Negative limit should fall back to default 30
	w := httptest.NewRecorder()
	handler.ListSnapshots(w, accountRequest(http.MethodGet, "/api/v1/snapshots/"+testAccount+"?limit=-5", testAccount))

	if svc.lastListLimit != 30 {
		t.Errorf("limit passed to service = %d, want default 30", svc.lastListLimit)
	}
	var result []snapshot.Snapshot
	json.NewDecoder(w.Body).Decode(&result)
	if len(result) != 2 {
		t.Errorf("snapshot count = %d, want 2", len(result))
	}
}

func TestListSnapshotsEmptyIsArray(t *testing.T) {
	handler := NewHandler(&mockSnapshotService{})

	w := httptest.NewRecorder()
	handler.ListSnapshots(w, accountRequest(http.MethodGet, "/api/v1/snapshots/"+testAccount, testAccount))

	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestListSnapshotsError(t *testing.T) {
	handler := NewHandler(&mockSnapshotService{listErr: errors.New("db down")})

	w := httptest.NewRecorder()
	handler.ListSnapshots(w, accountRequest(http.MethodGet, "/api/v1/snapshots/"+testAccount, testAccount))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestGenerateSnapshot(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusOK},
		{"incomplete", snapshot.ErrIncomplete, http.StatusServiceUnavailable},
		{"failure", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSnapshotService{generateErr: tt.err}
			handler := NewHandler(svc)

			w := httptest.NewRecorder()
			handler.GenerateSnapshot(w, accountRequest(http.MethodPost, "/api/v1/snapshots/"+testAccount+"/generate", testAccount))

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if len(svc.generated) != 1 || svc.generated[0] != testAccount {
				t.Errorf("generated = %v, want [%s]", svc.generated, testAccount)
			}
		})
	}
}
