package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rathod-sahaab/elide/internal/auth"
	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/httputil"
	"github.com/rathod-sahaab/elide/internal/link"
	"github.com/rathod-sahaab/elide/internal/logging"
)

const (
	minSlugLen = 1
	maxSlugLen = 64
)

// LinkHandler exposes link CRUD and the availability check.
type LinkHandler struct {
	bridge *bridge.Bridge
	logger *logging.Logger
}

func NewLinkHandler(b *bridge.Bridge, logger *logging.Logger) *LinkHandler {
	return &LinkHandler{bridge: b, logger: logger}
}

type linkResponse struct {
	ID         string     `json:"id"`
	Slug       string     `json:"slug"`
	Target     string     `json:"target"`
	CreatorID  *string    `json:"creator_id,omitempty"`
	Active     bool       `json:"active"`
	ActiveFrom *time.Time `json:"active_from,omitempty"`
	ActiveTill *time.Time `json:"active_till,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toLinkResponse(l *link.Link) linkResponse {
	resp := linkResponse{
		ID:         l.ID.String(),
		Slug:       l.Slug,
		Target:     l.Target,
		Active:     l.Active,
		ActiveFrom: l.ActiveFrom,
		ActiveTill: l.ActiveTill,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
	if l.CreatorID != nil {
		id := l.CreatorID.String()
		resp.CreatorID = &id
	}
	return resp
}

type createLinkRequest struct {
	Slug   string `json:"slug"`
	Target string `json:"target"`
	Active *bool  `json:"active"`
}

// Create makes an owned link for the authenticated caller.
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	h.create(w, r, &userID)
}

// CreateOrphan makes an ownerless link. Authenticated callers are turned away
// so a stale cookie cannot silently demote a link to an orphan.
func (h *LinkHandler) CreateOrphan(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.GetUserID(r.Context()); ok {
		httputil.RespondErrorWithCode(w, "orphan links are for anonymous callers; use the authenticated endpoint", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	h.create(w, r, nil)
}

func (h *LinkHandler) create(w http.ResponseWriter, r *http.Request, creatorID *uuid.UUID) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if msg, ok := validateSlug(req.Slug); !ok {
		httputil.RespondErrorWithCode(w, msg, httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	if msg, ok := validateTarget(req.Target); !ok {
		httputil.RespondErrorWithCode(w, msg, httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	created, err := h.bridge.CreateLink(r.Context(), bridge.CreateLink{
		Slug:      req.Slug,
		Target:    req.Target,
		CreatorID: creatorID,
		Active:    req.Active,
	})
	if err != nil {
		respondLinkError(w, r, err)
		return
	}

	httputil.RespondJSON(w, toLinkResponse(created), http.StatusCreated)
}

// List returns the authenticated caller's links, newest first.
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	links, err := h.bridge.ListLinksByOwner(r.Context(), bridge.ListLinksByOwner{OwnerID: userID})
	if err != nil {
		respondLinkError(w, r, err)
		return
	}

	out := make([]linkResponse, 0, len(links))
	for i := range links {
		out = append(out, toLinkResponse(&links[i]))
	}
	httputil.RespondJSON(w, out, http.StatusOK)
}

// Get returns one of the caller's links. Links owned by somebody else look
// exactly like missing ones.
func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	l, err := h.bridge.ReadLink(r.Context(), bridge.ReadLink{ID: id})
	if err != nil {
		respondLinkError(w, r, err)
		return
	}
	if !l.OwnedBy(userID) {
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	httputil.RespondJSON(w, toLinkResponse(l), http.StatusOK)
}

type updateLinkRequest struct {
	Slug       *string    `json:"slug"`
	Target     *string    `json:"target"`
	Active     *bool      `json:"active"`
	ActiveFrom *time.Time `json:"active_from"`
	ActiveTill *time.Time `json:"active_till"`
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	var req updateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Slug != nil {
		if msg, ok := validateSlug(*req.Slug); !ok {
			httputil.RespondErrorWithCode(w, msg, httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
	}
	if req.Target != nil {
		if msg, ok := validateTarget(*req.Target); !ok {
			httputil.RespondErrorWithCode(w, msg, httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
	}

	updated, err := h.bridge.UpdateLink(r.Context(), bridge.UpdateLink{
		ID:      id,
		OwnerID: userID,
		Fields: link.UpdateParams{
			Slug:       req.Slug,
			Target:     req.Target,
			Active:     req.Active,
			ActiveFrom: req.ActiveFrom,
			ActiveTill: req.ActiveTill,
		},
	})
	if err != nil {
		respondLinkError(w, r, err)
		return
	}

	httputil.RespondJSON(w, toLinkResponse(updated), http.StatusOK)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	deleted, err := h.bridge.DeleteLink(r.Context(), bridge.DeleteLink{ID: id, OwnerID: userID})
	if err != nil {
		respondLinkError(w, r, err)
		return
	}

	httputil.RespondJSON(w, toLinkResponse(deleted), http.StatusOK)
}

// SlugAvailability is advisory; only Create reserves a slug.
func (h *LinkHandler) SlugAvailability(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if msg, ok := validateSlug(slug); !ok {
		httputil.RespondErrorWithCode(w, msg, httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	available, err := h.bridge.SlugAvailable(r.Context(), bridge.SlugAvailable{Slug: slug})
	if err != nil {
		respondLinkError(w, r, err)
		return
	}
	httputil.RespondJSON(w, map[string]bool{"available": available}, http.StatusOK)
}

func validateSlug(slug string) (string, bool) {
	if len(slug) < minSlugLen || len(slug) > maxSlugLen {
		return "slug must be between 1 and 64 characters", false
	}
	for _, r := range slug {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return "slug may only contain lowercase letters, digits, '_' and '-'", false
		}
	}
	return "", true
}

func validateTarget(target string) (string, bool) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "target must be an absolute http or https URL", false
	}
	return "", true
}
