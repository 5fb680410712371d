package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"auction-marketplace/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapError translates service errors into an HTTP status and a message
// safe to return to callers.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAuctionNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrAuctionNotLive),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrSameBidder),
		errors.Is(err, domain.ErrNotSettleable),
		errors.Is(err, domain.ErrMissingSeller),
		errors.Is(err, domain.ErrPaymentDeclined),
		errors.Is(err, domain.ErrNoSettlement):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotWinner),
		errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrDuplicateReview):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "upstream service unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func respondError(c echo.Context, err error) error {
	status, message := mapError(err)
	return c.JSON(status, map[string]string{"error": message})
}

func writeError(w http.ResponseWriter, err error) {
	status, message := mapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
