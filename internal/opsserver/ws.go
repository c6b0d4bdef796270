package opsserver

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/webitel/genisys-master/internal/genisys/state"
)

var statusUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatusWS pushes every Status rollup change to a connected
// operator dashboard, generalizing internal/handler/ws/delivery.go's
// upgrade-subscribe-pump loop from a per-user message feed to the
// single system-wide Status channel.
func handleStatusWS(status StatusSource, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := statusUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("statusz ws upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		ch := make(chan state.Status, 8)
		unsubscribe := status.Subscribe(ch)
		defer unsubscribe()

		if err := conn.WriteJSON(statuszPush{Status: status.Status().String()}); err != nil {
			return
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case s, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(statuszPush{Status: s.String()}); err != nil {
					logger.Warn("statusz ws send failed", "err", err)
					return
				}
			}
		}
	}
}

type statuszPush struct {
	Status string `json:"status"`
}
