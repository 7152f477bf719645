package server

import "net/http"

// configResponse describes the active deployment for clients deciding
// which OAuth flow or header set to use; it never includes secrets.
type configResponse struct {
	AuthProvider string `json:"auth_provider"`
}

func (s *handlers) handleConfig(w http.ResponseWriter, _ *http.Request) {
	name := ""
	if s.deps.Provider != nil {
		name = s.deps.Provider.Name()
	}
	writeJSON(w, http.StatusOK, configResponse{AuthProvider: name})
}

func (s *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
