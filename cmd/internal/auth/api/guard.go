package authapi

import (
	"net/http"
)

// Principal identifies the authenticated caller for the lifetime of one
// request. The guard is stateless: a valid signature is enough, no store
// lookup happens here.
type Principal struct {
	AccountID string
}

// requireAuth extracts and verifies the access token. All failure modes
// collapse into a single 401 so callers cannot probe which check failed.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (Principal, bool) {
	tok := h.accessTokenFromRequest(r)
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized request")
		return Principal{}, false
	}
	accountID, err := h.sessions.ValidateAccess(tok)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized request")
		return Principal{}, false
	}
	return Principal{AccountID: accountID}, true
}
