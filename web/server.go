package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHandler returns the HTTP routes for the hub: /ws streams state,
// /state returns it once, /pause and /resume control the agent and /metrics
// exposes prometheus metrics.
func NewHandler(hub *Hub) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		client, ok := hub.attach(conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub stopped")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}
		go client.writePump()
		go client.readPump()
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		state, err := hub.agent.State()
		if err != nil {
			http.Error(w, "failed to encode state", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(state)
	})

	mux.HandleFunc("/pause", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		hub.agent.Pause()
		writeStatus(w, hub.agent.IsPaused())
	})

	mux.HandleFunc("/resume", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		hub.agent.Resume()
		writeStatus(w, hub.agent.IsPaused())
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, paused bool) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"paused": paused})
}
