package http

import (
	"encoding/json"
	"errors"
	"net/http"

	d "github.com/fjod/go_cart/checkout-gateway/internal/domain"
	"github.com/fjod/go_cart/checkout-gateway/pkg/circuitbreaker"
	"go.uber.org/zap"
)

const genericErrorMessage = "Unable to create checkout session."

type ErrorResponse struct {
	Error string `json:"error"`
}

// classifyError maps internal errors onto the two presentations callers see:
// a specific client error, or the generic 500. Validation and upstream
// failures are deliberately indistinguishable from outside.
func classifyError(err error) (int, string) {
	var clientErr *d.ClientInputError
	if errors.As(err, &clientErr) {
		if clientErr.TooLarge {
			return http.StatusRequestEntityTooLarge, clientErr.Message
		}
		return http.StatusBadRequest, clientErr.Message
	}
	return http.StatusInternalServerError, genericErrorMessage
}

// logError records the detail that classifyError hides from the caller.
func logError(log *zap.Logger, err error) {
	var (
		clientErr  *d.ClientInputError
		invalidErr *d.InvalidItemError
		upstream   *d.UpstreamError
	)
	switch {
	case errors.As(err, &clientErr):
		log.Info("rejected checkout request", zap.String("reason", clientErr.Message))
	case errors.As(err, &invalidErr):
		log.Warn("invalid cart item", zap.Error(err))
	case circuitbreaker.IsOpen(err):
		log.Warn("payment provider circuit open, call refused", zap.Error(err))
	case errors.As(err, &upstream):
		log.Error("payment provider call failed", zap.Error(err))
	default:
		log.Error("checkout session failed", zap.Error(err))
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
