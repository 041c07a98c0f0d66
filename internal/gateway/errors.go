package gateway

import (
	"errors"
	"net/http"

	"github.com/rathod-sahaab/elide/internal/bridge"
	"github.com/rathod-sahaab/elide/internal/httputil"
	"github.com/rathod-sahaab/elide/internal/link"
	"github.com/rathod-sahaab/elide/internal/logging"
)

func respondLinkError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, link.ErrDuplicateSlug):
		httputil.RespondErrorWithCode(w, "slug is taken", httputil.CodeSlugTaken, http.StatusConflict)
	case errors.Is(err, link.ErrNotFound):
		httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, bridge.ErrOutcomeUnknown):
		httputil.RespondErrorWithCode(w, "request timed out with the operation still in flight", httputil.CodeOutcomeUnknown, http.StatusGatewayTimeout)
	case errors.Is(err, bridge.ErrQueueFull):
		httputil.RespondError(w, "service overloaded, try again", http.StatusServiceUnavailable)
	default:
		logging.GetLoggerFromContext(r.Context()).Error("link request failed", "error", err)
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
