package handlers

import (
	"net/http"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	log            logger.Logger
}

type ProcessPaymentRequest struct {
	AuctionID     string             `json:"auction_id"`
	Card          domain.CardDetails `json:"card"`
	PaymentMethod string             `json:"payment_method"`
}

func NewPaymentHandler(paymentService *services.PaymentService, log logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log,
	}
}

func (h *PaymentHandler) Register(e *echo.Echo, secret string) {
	api := e.Group("/api/v1", middleware.Authenticate(secret, h.log))

	api.POST("/payments/process", h.ProcessPayment, middleware.RequireRole(auth.RoleBuyer, auth.RoleAdmin))
	api.GET("/payments/check/:auctionId", h.CheckSettlement, middleware.RequireRole(auth.RoleService))
	api.GET("/payments/auction/:auctionId", h.GetTransaction)
}

func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	var req ProcessPaymentRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind payment request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	tx, err := h.paymentService.ProcessPayment(c.Request().Context(), claims.Username, services.ProcessPaymentInput{
		AuctionID:     req.AuctionID,
		Card:          req.Card,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.log.Warn("Payment rejected", "auction_id", req.AuctionID, "buyer", claims.Username, "error", err)
		return respondError(c, err)
	}

	h.log.Info("Payment completed", "transaction_id", tx.ID, "auction_id", tx.AuctionID, "amount", tx.Amount)
	return c.JSON(http.StatusCreated, tx)
}

// CheckSettlement answers the reputation gate's existence probe. A completed
// settlement yields 200, anything else 404, so callers never learn amounts
// or card details.
func (h *PaymentHandler) CheckSettlement(c echo.Context) error {
	auctionID := c.Param("auctionId")

	exists, err := h.paymentService.CompletedExists(c.Request().Context(), auctionID)
	if err != nil {
		h.log.Error("Settlement check failed", "auction_id", auctionID, "error", err)
		return respondError(c, err)
	}
	if !exists {
		return c.JSON(http.StatusNotFound, map[string]bool{"exists": false})
	}
	return c.JSON(http.StatusOK, map[string]bool{"exists": true})
}

func (h *PaymentHandler) GetTransaction(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	auctionID := c.Param("auctionId")

	tx, err := h.paymentService.GetTransaction(c.Request().Context(), auctionID, claims.Username, claims.HasRole(auth.RoleAdmin))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tx)
}
