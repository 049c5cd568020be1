package voucher

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rental/internal/common"
)

// Handler exposes coupon endpoints. A nil Validator gets a default one.
type Handler struct {
	Svc       *Service
	Validator *validator.Validate
}

var defaultValidator = common.NewValidator(nil)

type previewRequest struct {
	Code     string `json:"code" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
	Amount   int64  `json:"amount" validate:"gte=0"`
}

// Preview returns the simulated discount for a coupon.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	v := h.Validator
	if v == nil {
		v = defaultValidator
	}
	if err := v.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", common.ValidationDetails(err))
		return
	}
	result, err := h.Svc.Preview(r.Context(), req.Code, req.Currency, req.Amount)
	switch {
	case err == nil:
		common.Data(w, http.StatusOK, result)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
	case isRuleError(err):
		common.JSONError(w, http.StatusBadRequest, "NOT_ELIGIBLE", err.Error(), nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("code", req.Code).Msg("coupon preview failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to preview coupon", nil)
	}
}

func isRuleError(err error) bool {
	for _, target := range []error{ErrNotEligible, ErrUsageLimitReached, ErrInactive, ErrExpired, ErrMinimumSpendUnmet, ErrCurrencyMismatch} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
