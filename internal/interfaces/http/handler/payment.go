package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentapp "github.com/shop/backend/internal/application/payment"
	"github.com/shop/backend/internal/domain/payment"
	"go.uber.org/zap"
)

// PaymentHandler handles payment preference creation and reconciliation
// endpoints. The webhook endpoint is called directly by the payment provider
// and carries no authentication.
type PaymentHandler struct {
	BaseHandler
	preferenceService     *paymentapp.PreferenceService
	reconciliationService *paymentapp.ReconciliationService
	logger                *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	preferenceService *paymentapp.PreferenceService,
	reconciliationService *paymentapp.ReconciliationService,
	logger *zap.Logger,
) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		preferenceService:     preferenceService,
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// CreatePreference creates a hosted checkout preference for a pending order
func (h *PaymentHandler) CreatePreference(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.preferenceService.Create(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// SyncPayment runs a manual reconciliation pass against the provider for one
// of the buyer's orders
func (h *PaymentHandler) SyncPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.reconciliationService.SyncPayment(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// webhookBody is the JSON shape of the provider's newer notification channel
type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Webhook ingests provider notifications. The provider retries on anything
// but 200, so every outcome acknowledges with a generic body; failures are
// logged and picked up by a later notification or a manual sync.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	topic := c.Query("topic")
	resourceID := c.Query("id")
	typ := c.Query("type")

	var body webhookBody
	if err := c.ShouldBindJSON(&body); err == nil {
		if typ == "" {
			typ = body.Type
		}
		if resourceID == "" {
			resourceID = body.Data.ID
		}
	}
	if resourceID == "" {
		resourceID = c.Query("data.id")
	}

	evt := payment.Event{
		Kind:       payment.ClassifyEvent(topic, typ),
		ResourceID: resourceID,
	}

	if err := h.reconciliationService.HandleEvent(c.Request.Context(), evt); err != nil {
		// Acknowledge anyway; the provider's retry or a manual sync recovers
		h.logger.Error("Webhook reconciliation failed",
			zap.String("kind", string(evt.Kind)),
			zap.String("resource_id", evt.ResourceID),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
