package server

import (
	"encoding/json"
	"errors"
	"net/http"

	coreerrors "github.com/mcp-gateway-registry/core/pkg/errors"
	"github.com/mcp-gateway-registry/core/pkg/logger"
)

// statusForKind maps a coreerrors.Kind to the HTTP status the
// Authorization Engine and Token Issuer must answer with, per the error
// handling design's kind-to-status table.
func statusForKind(kind coreerrors.Kind) int {
	switch kind {
	case coreerrors.ErrAuthMissing, coreerrors.ErrAuthInvalidSignature, coreerrors.ErrAuthExpired, coreerrors.ErrAuthMalformed:
		return http.StatusUnauthorized
	case coreerrors.ErrAuthzDenied, coreerrors.ErrPolicyEmpty:
		return http.StatusForbidden
	case coreerrors.ErrRateLimited:
		return http.StatusTooManyRequests
	case coreerrors.ErrInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a JSON {"error": "..."} body with the status
// its kind maps to, logging at warn (client-side failure classes) or
// error (engine faults) level. err's message never includes token or
// cookie material, which is enforced at construction in the caller, not
// here.
func writeError(w http.ResponseWriter, err error) {
	var coreErr *coreerrors.Error
	if !errors.As(err, &coreErr) {
		coreErr = coreerrors.NewInternalError("unexpected error", err)
	}

	status := statusForKind(coreErr.Type)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	if status >= http.StatusInternalServerError {
		logger.Errorf("request failed: %s", coreErr.Error())
	} else {
		logger.Warnf("request rejected: %s", coreErr.Error())
	}

	writeJSON(w, status, map[string]string{"error": coreErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("failed to encode response body: %v", err)
	}
}
