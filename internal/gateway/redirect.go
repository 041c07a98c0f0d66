package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/httputil"
	"github.com/rathod-sahaab/elide/internal/link"
	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/metrics"
)

// RedirectHandler serves the hot path: slug in, Location header out.
type RedirectHandler struct {
	bridge     *bridge.Bridge
	consoleURL string
	logger     *logging.Logger
}

func NewRedirectHandler(b *bridge.Bridge, consoleURL string, logger *logging.Logger) *RedirectHandler {
	return &RedirectHandler{bridge: b, consoleURL: consoleURL, logger: logger}
}

// Resolve redirects a slug to its target with a 307 so clients keep re-asking
// and see slug reassignments.
func (h *RedirectHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, ok := validateSlug(slug); !ok {
		metrics.RedirectsTotal.WithLabelValues("miss").Inc()
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	l, err := h.bridge.ReadLinkBySlug(r.Context(), bridge.ReadLinkBySlug{Slug: slug})
	if errors.Is(err, link.ErrNotFound) {
		metrics.RedirectsTotal.WithLabelValues("miss").Inc()
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		metrics.RedirectsTotal.WithLabelValues("error").Inc()
		respondLinkError(w, r, err)
		return
	}

	if !l.Active {
		metrics.RedirectsTotal.WithLabelValues("inactive").Inc()
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeLinkInactive, http.StatusNotFound)
		return
	}

	metrics.RedirectsTotal.WithLabelValues("hit").Inc()
	http.Redirect(w, r, l.Target, http.StatusTemporaryRedirect)
}

// Root sends visitors with no slug to the console.
func (h *RedirectHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.consoleURL, http.StatusPermanentRedirect)
}
