package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"playtube/cmd/account"
	"playtube/cmd/internal/auth/session"
	"playtube/cmd/internal/media"
	"playtube/cmd/security/token"
)

// Handler wires the account HTTP endpoints to the session service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service

	// nil when object storage is not configured; the upload-url endpoint
	// then answers 503.
	media media.Presigner
}

// NewHandler constructs the account API handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service, presigner media.Presigner) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if sessions == nil {
		return nil, errors.New("authapi: nil session service")
	}
	return &Handler{
		log:      log,
		cfg:      cfg,
		sessions: sessions,
		media:    presigner,
	}, nil
}

// Register wires account routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/v1/users/register", h.handleRegister)
	mux.HandleFunc("/api/v1/users/login", h.handleLogin)
	mux.HandleFunc("/api/v1/users/refresh-token", h.handleRefresh)
	mux.HandleFunc("/api/v1/users/logout", h.handleLogout)
	mux.HandleFunc("/api/v1/users/change-password", h.handleChangePassword)
	mux.HandleFunc("/api/v1/users/me", h.handleMe)
	mux.HandleFunc("/api/v1/users/update-account", h.handleUpdateAccount)
	mux.HandleFunc("/api/v1/users/avatar-upload-url", h.handleUploadURL)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := h.sessions.Register(r.Context(), session.RegisterInput{
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		Password:      req.Password,
		AvatarKey:     req.AvatarKey,
		CoverImageKey: req.CoverImageKey,
	})
	if err != nil {
		var conflict account.ConflictError
		switch {
		case errors.Is(err, session.ErrValidation):
			writeError(w, http.StatusBadRequest, "username, email, fullName and password are required")
		case errors.As(err, &conflict):
			writeError(w, http.StatusConflict, "account already exists", conflict.Field+" is taken")
		case account.IsConflict(err):
			writeError(w, http.StatusConflict, "account already exists")
		case account.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid input")
		default:
			h.log.Error("users.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(acc), "account registered")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrValidation):
			writeError(w, http.StatusBadRequest, "username or email and password are required")
		case errors.Is(err, session.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			h.log.Error("users.login.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.setSessionCookies(w, res.Issued)
	writeJSON(w, http.StatusOK, loginResponse{
		User:      toAccountResponse(res.Account),
		tokenPair: toTokenPair(res.Issued),
	}, "logged in")
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		if cookieToken, ok := h.refreshTokenFromCookie(r); ok {
			refreshToken = cookieToken
		}
	}
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	issued, err := h.sessions.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenReused):
			// A stale or replayed token: drop the browser's cookies so it
			// stops retrying with a dead credential.
			h.clearSessionCookies(w)
			writeError(w, http.StatusUnauthorized, "refresh token is expired or used")
		case errors.Is(err, session.ErrUnauthorized),
			errors.Is(err, token.ErrTokenExpired),
			errors.Is(err, token.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.log.Error("users.refresh.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.setSessionCookies(w, issued)
	writeJSON(w, http.StatusOK, toTokenPair(issued), "access token refreshed")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Logout(r.Context(), p.AccountID); err != nil {
		h.log.Error("users.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, struct{}{}, "logged out")
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.sessions.ChangePassword(r.Context(), p.AccountID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrValidation):
			writeError(w, http.StatusBadRequest, "old and new passwords are required")
		case errors.Is(err, session.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid old password")
		case errors.Is(err, session.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized request")
		default:
			h.log.Error("users.change_password.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, struct{}{}, "password changed")
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	acc, err := h.sessions.Account(r.Context(), p.AccountID)
	if err != nil {
		if errors.Is(err, session.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized request")
			return
		}
		h.log.Error("users.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(acc), "current account")
}

func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == nil && req.AvatarKey == nil && req.CoverImageKey == nil {
		writeError(w, http.StatusBadRequest, "at least one field is required")
		return
	}

	acc, err := h.sessions.UpdateProfile(r.Context(), p.AccountID, account.ProfileUpdate{
		FullName:      req.FullName,
		AvatarKey:     req.AvatarKey,
		CoverImageKey: req.CoverImageKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized request")
		case account.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid input")
		default:
			h.log.Error("users.update_account.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(acc), "account updated")
}

func (h *Handler) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, ok := h.requireAuth(w, r); !ok {
		return
	}

	if h.media == nil {
		writeError(w, http.StatusServiceUnavailable, "media storage not configured")
		return
	}

	var req uploadURLRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var kind media.ImageKind
	switch strings.ToLower(strings.TrimSpace(req.Kind)) {
	case "", "avatar":
		kind = media.KindAvatar
	case "cover":
		kind = media.KindCover
	default:
		writeError(w, http.StatusBadRequest, "kind must be avatar or cover")
		return
	}

	up, err := h.media.PresignUpload(r.Context(), kind)
	if err != nil {
		h.log.Error("users.upload_url.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, uploadURLResponse{
		Key:              up.Key,
		UploadURL:        up.URL,
		ExpiresInSeconds: int64(up.ExpiresIn.Seconds()),
	}, "upload url issued")
}
