package handlers

import (
	"net/http"
	"strconv"
	"time"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AuctionHandler struct {
	auctionService *services.AuctionService
	log            logger.Logger
}

type CreateAuctionRequest struct {
	ProductName     string  `json:"product_name"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url"`
	StartPrice      float64 `json:"start_price"`
	DurationMinutes int     `json:"duration_minutes"`
}

func NewAuctionHandler(auctionService *services.AuctionService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctionService: auctionService,
		log:            log,
	}
}

func (h *AuctionHandler) Register(e *echo.Echo, secret string) {
	api := e.Group("/api/v1")
	authn := middleware.Authenticate(secret, h.log)

	api.GET("/auctions", h.ListAuctions)
	api.GET("/auctions/:id", h.GetAuction)
	api.POST("/auctions", h.CreateAuction, authn, middleware.RequireRole(auth.RoleSeller, auth.RoleAdmin))
	api.POST("/auctions/:id/cancel", h.CancelAuction, authn)
	api.PUT("/auctions/:id/highest-bid", h.RecordHighestBid, authn, middleware.RequireRole(auth.RoleService))
	api.PUT("/auctions/:id/status", h.ChangeStatus, authn, middleware.RequireRole(auth.RoleService))
}

func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	auctions, err := h.auctionService.ListAuctions(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to list auctions", "error", err)
		return respondError(c, err)
	}

	if status := c.QueryParam("status"); status != "" {
		filtered := make([]*domain.Auction, 0, len(auctions))
		for _, a := range auctions {
			if string(a.Status) == status {
				filtered = append(filtered, a)
			}
		}
		auctions = filtered
	}

	return c.JSON(http.StatusOK, auctions)
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.auctionService.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	auction, err := h.auctionService.CreateAuction(c.Request().Context(), claims.Username, services.CreateAuctionInput{
		ProductName: req.ProductName,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		StartPrice:  req.StartPrice,
		Duration:    time.Duration(req.DurationMinutes) * time.Minute,
	})
	if err != nil {
		h.log.Error("Failed to create auction", "seller", claims.Username, "error", err)
		return respondError(c, err)
	}

	h.log.Info("Auction created", "auction_id", auction.ID, "seller", claims.Username)
	return c.JSON(http.StatusCreated, auction)
}

func (h *AuctionHandler) CancelAuction(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	auctionID := c.Param("id")

	err := h.auctionService.Cancel(c.Request().Context(), auctionID, claims.Username, claims.HasRole(auth.RoleAdmin))
	if err != nil {
		return respondError(c, err)
	}

	h.log.Info("Auction cancelled", "auction_id", auctionID, "requester", claims.Username)
	return c.NoContent(http.StatusNoContent)
}

// RecordHighestBid is the compare-and-set write-back endpoint called by
// the bidding service once a bid has been accepted into the ledger.
func (h *AuctionHandler) RecordHighestBid(c echo.Context) error {
	auctionID := c.Param("id")
	bidder := c.QueryParam("bidder")

	amount, err := strconv.ParseFloat(c.QueryParam("amount"), 64)
	if err != nil || amount <= 0 || bidder == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Valid amount and bidder required"})
	}

	if _, err := h.auctionService.RecordBid(c.Request().Context(), auctionID, amount, bidder); err != nil {
		return respondError(c, err)
	}

	h.log.Info("Highest bid recorded", "auction_id", auctionID, "amount", amount, "bidder", bidder)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuctionHandler) ChangeStatus(c echo.Context) error {
	auctionID := c.Param("id")
	next := domain.AuctionStatus(c.QueryParam("status"))
	if !next.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown auction status"})
	}

	if err := h.auctionService.ChangeStatus(c.Request().Context(), auctionID, next); err != nil {
		return respondError(c, err)
	}

	h.log.Info("Auction status changed", "auction_id", auctionID, "status", next)
	return c.NoContent(http.StatusNoContent)
}
