package listing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rental/internal/common"
	"github.com/noah-isme/backend-rental/internal/obs"
)

// Handler serves listing endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{service: svc}
}

// Get handles GET /api/v1/listings/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "listing service not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	obs.SetListingID(r.Context(), id)
	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !common.IsAppError(err) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("get listing failed")
		}
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, l)
}
