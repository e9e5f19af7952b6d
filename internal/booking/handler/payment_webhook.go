package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"courtbook/internal/booking/service"
	apperrors "courtbook/pkg/errors"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"
)

// PaymentWebhookHandler receives payment gateway callbacks. It is mounted on
// a separate router guarded by HMAC signature verification, never on the
// user-facing one.
type PaymentWebhookHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewPaymentWebhookHandler(service service.BookingService, log *logger.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		service: service,
		log:     log,
	}
}

type paymentCallback struct {
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

func (h *PaymentWebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var callback paymentCallback
	if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "HandleCallback", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if callback.BookingID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("booking_id is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "HandleCallback", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	h.log.Info("Payment callback received",
		"booking_id", callback.BookingID,
		"status", callback.Status,
		"transaction_id", callback.TransactionID,
	)

	if callback.Status != "success" {
		// Failed or pending payments leave the hold in place; the sweeper
		// reclaims it if nothing else happens.
		httputil.WriteNoContent(w)
		return
	}

	booking, err := h.service.ConfirmPayment(r.Context(), callback.BookingID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "HandleCallback", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, toResponse(booking)); err != nil {
		h.log.Error("failed to write success response", "handler", "HandleCallback", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentWebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments/webhook", h.HandleCallback)
}
