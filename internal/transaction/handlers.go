package transaction

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rental/internal/common"
	"github.com/noah-isme/backend-rental/internal/obs"
	"github.com/noah-isme/backend-rental/internal/pricing"
)

// Handler serves the line item endpoint.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler. A nil validator gets a default one.
// Validation errors are reported with JSON field names.
func NewHandler(svc *Service, v *validator.Validate) *Handler {
	return &Handler{service: svc, validate: common.NewValidator(v)}
}

// LineItemsRequest is the body of POST /api/v1/transaction-line-items.
type LineItemsRequest struct {
	ListingID string            `json:"listingId" validate:"required,uuid"`
	OrderData pricing.OrderData `json:"orderData"`
}

// LineItems handles POST /api/v1/transaction-line-items.
func (h *Handler) LineItems(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction service not configured", nil)
		return
	}
	var req LineItemsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", map[string]any{"offset": syntaxErr.Offset})
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", common.ValidationDetails(err))
		return
	}
	obs.SetListingID(r.Context(), req.ListingID)

	result, err := h.service.Compute(r.Context(), req.ListingID, req.OrderData)
	if err != nil {
		if !common.IsAppError(err) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("transaction line items failed")
		}
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, result)
}
