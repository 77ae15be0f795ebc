package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hausware/deebot/internal/core"
)

// RegisterRegistry exposes plugin discovery over HTTP:
// GET /registry/plugins and GET /registry/plugins/<id>.
func RegisterRegistry(mux *http.ServeMux, registry *core.Registry) {
	mux.HandleFunc("/registry/plugins", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, map[string]any{"plugins": registry.ListPlugins()})
	})

	mux.HandleFunc("/registry/plugins/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		pluginID := strings.TrimPrefix(r.URL.Path, "/registry/plugins/")
		descriptor, ok := registry.DescribePlugin(pluginID)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, descriptor)
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
