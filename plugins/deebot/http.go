package deebot

import (
	"encoding/json"
	"net/http"

	"github.com/hausware/deebot/internal/core"
)

const (
	stateEndpoint   = "/deebot/state"
	commandEndpoint = "/deebot/command"
)

var _ core.HTTPRegistrant = (*Plugin)(nil)

type commandRequest struct {
	Verb string `json:"verb"`
	Args []any  `json:"args,omitempty"`
}

func (p Plugin) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc(stateEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if p.session == nil {
			http.Error(w, "deebot unavailable", http.StatusServiceUnavailable)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		payload := struct {
			Device Vacuum      `json:"device"`
			State  DeviceState `json:"state"`
			Maps   []MapInfo   `json:"maps"`
		}{
			Device: p.session.Vacuum(),
			State:  p.session.State(),
			Maps:   p.session.Store().Maps(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(payload)
	})

	mux.HandleFunc(commandEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if p.session == nil {
			http.Error(w, "deebot unavailable", http.StatusServiceUnavailable)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Verb == "" {
			http.Error(w, "verb is required", http.StatusBadRequest)
			return
		}
		if err := p.session.Run(req.Verb, req.Args...); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "verb": req.Verb})
	})
}
