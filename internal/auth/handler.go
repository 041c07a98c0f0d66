package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/httputil"
	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/user"
)

// Handler exposes account and session endpoints.
type Handler struct {
	service      *Service
	logger       *logging.Logger
	cookieTTL    time.Duration
	secureCookie bool
}

func NewHandler(service *Service, logger *logging.Logger, cookieTTL time.Duration, secureCookie bool) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

type userResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	CreatedAt   string `json:"created_at"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	u, err := h.service.Register(r.Context(), RegisterParams{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, toUserResponse(u), http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	u, token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, h.cookieTTL))
	httputil.RespondJSON(w, toUserResponse(u), http.StatusOK)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Error("purging session on logout", "error", err)
		}
	}

	http.SetCookie(w, h.sessionCookie("", -time.Hour))
	httputil.RespondJSON(w, map[string]string{"status": "logged out"}, http.StatusOK)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.service.Account(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, toUserResponse(u), http.StatusOK)
}

type updateAccountRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	u, err := h.service.UpdateAccount(r.Context(), userID, UpdateAccountParams{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, toUserResponse(u), http.StatusOK)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	token, _ := GetSessionToken(r.Context())

	if err := h.service.DeleteAccount(r.Context(), userID, token); err != nil {
		h.respondError(w, r, err)
		return
	}

	http.SetCookie(w, h.sessionCookie("", -time.Hour))
	httputil.RespondJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

func (h *Handler) UsernameAvailability(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		httputil.RespondErrorWithCode(w, "username query parameter is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	available, err := h.service.UsernameAvailable(r.Context(), username)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, availabilityResponse{Available: available}, http.StatusOK)
}

func (h *Handler) EmailAvailability(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.RespondErrorWithCode(w, "email query parameter is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	available, err := h.service.EmailAvailable(r.Context(), email)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, availabilityResponse{Available: available}, http.StatusOK)
}

func (h *Handler) sessionCookie(value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.RespondErrorWithCode(w, verr.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
	case errors.Is(err, user.ErrDuplicateUsername):
		httputil.RespondErrorWithCode(w, "username is taken", httputil.CodeUsernameTaken, http.StatusConflict)
	case errors.Is(err, user.ErrDuplicateEmail):
		httputil.RespondErrorWithCode(w, "email is taken", httputil.CodeEmailTaken, http.StatusConflict)
	case errors.Is(err, ErrUnauthorized), errors.Is(err, user.ErrNotFound):
		// Uniform shape for unknown usernames and wrong passwords.
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, bridge.ErrOutcomeUnknown):
		httputil.RespondErrorWithCode(w, "request timed out with the operation still in flight", httputil.CodeOutcomeUnknown, http.StatusGatewayTimeout)
	default:
		logging.GetLoggerFromContext(r.Context()).Error("account request failed", "error", err)
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
