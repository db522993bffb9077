package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	d "github.com/fjod/go_cart/checkout-gateway/internal/domain"
	"github.com/fjod/go_cart/checkout-gateway/internal/service"
	"github.com/fjod/go_cart/checkout-gateway/pkg/logger"
	"go.uber.org/zap"
)

// Stripe rejects longer keys.
const maxIdempotencyKeyLength = 255

var errIdempotencyKeyTooLong = &d.ClientInputError{Message: "Idempotency-Key is too long."}

type CheckoutHandler struct {
	checkout service.CheckoutService
	log      *zap.Logger
}

func NewCheckoutHandler(checkout service.CheckoutService, log *zap.Logger) *CheckoutHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutHandler{
		checkout: checkout,
		log:      log,
	}
}

type CheckoutSessionResponseDTO struct {
	URL string `json:"url"`
}

// POST /create-checkout-session
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	log := logger.WithTrace(r.Context(), h.log).With(zap.String("request_id", getRequestID(r.Context())))

	session, err := h.createSession(r)
	if err != nil {
		logError(log, err)
		status, message := classifyError(err)
		respondError(w, status, message)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutSessionResponseDTO{URL: session.URL})
}

func (h *CheckoutHandler) createSession(r *http.Request) (*d.CheckoutSession, error) {
	// Bodies that are not declared as JSON are not read; the cart is empty.
	cart := &d.Cart{}
	if isJSON(r.Header.Get("Content-Type")) {
		var err error
		if cart, err = decodeCart(r.Body); err != nil {
			return nil, err
		}
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if len(key) > maxIdempotencyKeyLength {
		return nil, errIdempotencyKeyTooLong
	}

	return h.checkout.CreateCheckoutSession(r.Context(), cart, key)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// decodeCart reads {"items": [...]} leniently: a missing body, a non-object
// body or a non-list items field all yield an empty cart, and non-object
// entries become items with no fields.
func decodeCart(body io.Reader) (*d.Cart, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, d.ErrBodyTooLarge
		}
		return nil, d.ErrInvalidJSON
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &d.Cart{}, nil
	}
	if !json.Valid(data) {
		return nil, d.ErrInvalidJSON
	}
	if data[0] != '{' {
		return &d.Cart{}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, d.ErrInvalidJSON
	}
	rawItems := bytes.TrimSpace(envelope["items"])
	if len(rawItems) == 0 || rawItems[0] != '[' {
		return &d.Cart{}, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rawItems, &entries); err != nil {
		return nil, d.ErrInvalidJSON
	}

	cart := &d.Cart{Items: make([]d.CartItem, len(entries))}
	for i, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 || entry[0] != '{' {
			continue
		}
		if err := json.Unmarshal(entry, &cart.Items[i]); err != nil {
			return nil, d.ErrInvalidJSON
		}
	}
	return cart, nil
}
