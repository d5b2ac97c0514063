package authapi

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"vidtube/cmd/identity"
	"vidtube/cmd/internal/auth/session"
	"vidtube/cmd/internal/media"
)

// Handler wires the user-account HTTP endpoints to the identity store,
// the session service, and the media uploader.
type Handler struct {
	log *slog.Logger
	cfg Config

	store    identity.Store
	sessions *session.Service
	gate     *session.Gate
	uploads  media.Uploader
}

// NewHandler constructs the auth Handler and its access gate.
func NewHandler(log *slog.Logger, cfg Config, store identity.Store, sessions *session.Service, uploads media.Uploader) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil || sessions == nil || uploads == nil {
		return nil, errors.New("auth: missing dependencies")
	}

	gate, err := session.NewGate(sessions.Codec(), store)
	if err != nil {
		return nil, err
	}

	return &Handler{
		log:      log,
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		gate:     gate,
		uploads:  uploads,
	}, nil
}

// Register wires user routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /api/v1/users/register", h.handleRegister)
	mux.HandleFunc("POST /api/v1/users/login", h.handleLogin)
	mux.HandleFunc("POST /api/v1/users/refresh-token", h.handleRefresh)
	mux.HandleFunc("POST /api/v1/users/logout", h.requireAuth(h.handleLogout))
	mux.HandleFunc("GET /api/v1/users/current-user", h.requireAuth(h.handleCurrentUser))
	mux.HandleFunc("POST /api/v1/users/change-password", h.requireAuth(h.handleChangePassword))
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	// The multipart body carries the profile fields plus image uploads,
	// so the upload cap bounds the whole request.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(r.FormValue("email"))
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	ctx := r.Context()

	avatarURL, ok := h.uploadFormFile(w, r, "avatar", true)
	if !ok {
		return
	}
	coverURL, ok := h.uploadFormFile(w, r, "coverImage", false)
	if !ok {
		return
	}

	u, err := h.store.CreateUser(ctx, identity.CreateUserInput{
		Username:      username,
		Email:         email,
		Password:      password,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusConflict, "username or email already exists")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid input")
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.log.Info("user registered", "user_id", u.ID, "username", u.Username)
	writeData(w, http.StatusCreated, toUserResponse(u), "user registered successfully")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username/email and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	issued, user, err := h.sessions.Login(ctx, now, identifier, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			h.log.Warn("auth.login.invalid", "ip", clientIP(r, h.cfg.TrustProxy))
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.Error("auth.login.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setAuthCookies(w, issued.AccessToken, issued.AccessExp, issued.RefreshToken, issued.RefreshExp)
	writeData(w, http.StatusOK, loginResponse{
		User:         toUserResponse(user),
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
	}, "logged in successfully")
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshTokenFromRequest(w, r)
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	issued, err := h.sessions.Refresh(ctx, now, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenReused):
			h.log.Warn("auth.refresh.reuse", "ip", clientIP(r, h.cfg.TrustProxy))
			h.clearAuthCookies(w)
			writeError(w, http.StatusUnauthorized, "refresh token is expired or already used")
		case errors.Is(err, session.ErrExpired), errors.Is(err, session.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.setAuthCookies(w, issued.AccessToken, issued.AccessExp, issued.RefreshToken, issued.RefreshExp)
	writeData(w, http.StatusOK, refreshResponse{
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
	}, "access token refreshed")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	if err := h.sessions.Logout(r.Context(), time.Now().UTC(), u.ID); err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.clearAuthCookies(w)
	writeData(w, http.StatusOK, nil, "logged out successfully")
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid access token")
		return
	}
	writeData(w, http.StatusOK, toUserResponse(u), "current user fetched successfully")
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "oldPassword and newPassword are required")
		return
	}

	err := h.sessions.ChangePassword(r.Context(), time.Now().UTC(), u.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, "invalid old password")
		case errors.Is(err, session.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "user not found")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid new password")
		default:
			h.log.Error("auth.change_password.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeData(w, http.StatusOK, nil, "password changed successfully")
}

// uploadFormFile stores one multipart image field. A missing optional field
// yields (nil, true); any other failure writes the response itself.
func (h *Handler) uploadFormFile(w http.ResponseWriter, r *http.Request, field string, required bool) (*string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if required {
				writeError(w, http.StatusBadRequest, field+" file is required")
				return nil, false
			}
			return nil, true
		}
		writeError(w, http.StatusBadRequest, "invalid "+field+" upload")
		return nil, false
	}
	defer func() { _ = file.Close() }()

	url, err := h.uploads.Upload(r.Context(), safeFilename(header), file)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupportedType):
			writeError(w, http.StatusBadRequest, field+" must be an image")
		case errors.Is(err, media.ErrTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, field+" is too large")
		default:
			h.log.Error("auth.register.upload.fail", "field", field, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return nil, false
	}
	return &url, true
}

func safeFilename(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return strings.TrimSpace(header.Filename)
}
