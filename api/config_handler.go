package api

import (
	"net/http"

	"github.com/sbalaji92/investlens/internal/config"
)

// handleGetConfigKeys returns the status of required API keys with
// masked values. Raw key material never leaves the server.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	statuses := config.CheckAPIKeys(s.cfg)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"keys": statuses,
		},
	})
}
