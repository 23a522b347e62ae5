package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"dapurmamma_app_echo/internal/models"
	"dapurmamma_app_echo/internal/services"
	"dapurmamma_app_echo/internal/tasks"
)

// PaymentHandler exposes payment initiation and the Midtrans notification
// endpoint. db may be nil in tests; it is only used to enqueue follow-up
// email tasks.
type PaymentHandler struct {
	db       *gorm.DB
	store    services.OrderStore
	gateway  services.PaymentGatewayClient
	payments *services.PaymentService
	cache    *services.RedisCache
}

func NewPaymentHandler(db *gorm.DB, store services.OrderStore, gateway services.PaymentGatewayClient, payments *services.PaymentService, cache *services.RedisCache) *PaymentHandler {
	return &PaymentHandler{db: db, store: store, gateway: gateway, payments: payments, cache: cache}
}

// InitiatePayment handles the creation of a Snap transaction for an order
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	callerEmail := getStringFromContext(c, "userEmail")

	result, err := h.payments.InitiatePayment(c.Request().Context(), req.OrderID, callerEmail)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, InitiatePaymentResponse{
		Token:       result.Token,
		RedirectURL: result.RedirectURL,
		IsExisting:  result.IsExisting,
	})
}

// MidtransCallback handles asynchronous payment notifications. Midtrans
// retries on any non-2xx response, so every successfully processed
// notification answers 200, duplicates included.
func (h *PaymentHandler) MidtransCallback(c echo.Context) error {
	var notif models.PaymentNotification
	if err := c.Bind(&notif); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if !notif.HasRequiredFields() {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required notification fields")
	}

	if !h.gateway.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, notif.SignatureKey) {
		log.Printf("SECURITY: invalid notification signature for order_id %s from %s", notif.OrderID, c.RealIP())
		return echo.NewHTTPError(http.StatusForbidden, "Invalid signature")
	}

	newStatus := services.MapNotificationStatus(notif.TransactionStatus, notif.FraudStatus)

	ctx := c.Request().Context()
	order, err := h.store.FindByBusinessID(ctx, notif.OrderID)
	if err != nil {
		return err
	}

	if gross, parseErr := strconv.ParseFloat(notif.GrossAmount, 64); parseErr == nil && int64(gross) != order.TotalAmount {
		log.Printf("Warning: notification gross_amount %s does not match order %s total %d",
			notif.GrossAmount, order.BusinessOrderID, order.TotalAmount)
	}

	changed, err := h.store.ApplyNotificationResult(ctx, order.ID, newStatus, &notif)
	if err != nil {
		return err
	}

	if changed {
		if h.cache != nil {
			if err := h.cache.Delete(ctx, "order-status:"+order.UUID); err != nil {
				log.Printf("Failed to invalidate status cache for order %s: %v", order.BusinessOrderID, err)
			}
		}
		h.enqueueStatusEmail(order, newStatus)
	}

	return c.String(http.StatusOK, "OK")
}

// enqueueStatusEmail schedules the customer email outside the webhook path.
// Only called when the apply changed state, so redeliveries cannot
// double-send.
func (h *PaymentHandler) enqueueStatusEmail(order *models.Order, status models.OrderStatus) {
	if h.db == nil {
		return
	}

	task, err := tasks.SendOrderStatusEmailTask.CreateTask(tasks.SendOrderStatusEmailArgs{
		OrderID: order.ID,
		Status:  string(status),
	})
	if err != nil {
		log.Printf("Failed to build status email task for order %s: %v", order.BusinessOrderID, err)
		return
	}
	if err := h.db.Create(task).Error; err != nil {
		log.Printf("Failed to enqueue status email task for order %s: %v", order.BusinessOrderID, err)
	}
}
