package opsserver

import (
	"encoding/json"
	"net/http"

	"github.com/webitel/genisys-master/internal/observability"
)

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statuszResponse struct {
	Status string                 `json:"status"`
	Recent []observability.Record `json:"recent,omitempty"`
}

func handleStatusz(status StatusSource, ring *observability.RingSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statuszResponse{Status: status.Status().String()}
		if ring != nil {
			resp.Recent = ring.Recent()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
