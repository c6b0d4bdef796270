package opsserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/webitel/genisys-master/internal/genisys/state"
)

type fakeStatusSource struct {
	status state.Status
}

func (f *fakeStatusSource) Status() state.Status { return f.status }
func (f *fakeStatusSource) Subscribe(ch chan state.Status) (unsubscribe func()) {
	return func() {}
}

func TestHandleHealthz_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleStatusz_ReportsCurrentStatus(t *testing.T) {
	src := &fakeStatusSource{status: state.Connected}
	handler := handleStatusz(src, nil)

	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp statuszResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "Connected" {
		t.Fatalf("status = %q, want Connected", resp.Status)
	}
	if resp.Recent != nil {
		t.Fatalf("expected no recent history when ring is nil")
	}
}
