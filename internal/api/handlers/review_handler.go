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

type ReviewHandler struct {
	reviewService *services.ReviewService
	log           logger.Logger
}

type SubmitReviewRequest struct {
	AuctionID        string `json:"auction_id"`
	ReviewedUsername string `json:"reviewed_username"`
	ReviewType       string `json:"review_type"`
	Rating           int    `json:"rating"`
	Comment          string `json:"comment"`
}

type RatingResponse struct {
	Username      string  `json:"username"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

func NewReviewHandler(reviewService *services.ReviewService, log logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		log:           log,
	}
}

func (h *ReviewHandler) Register(e *echo.Echo, secret string) {
	api := e.Group("/api/v1")
	authn := middleware.Authenticate(secret, h.log)

	api.POST("/reviews", h.SubmitReview, authn, middleware.RequireRole(auth.RoleBuyer, auth.RoleSeller, auth.RoleAdmin))
	api.GET("/reviews/:username", h.GetReviewsForUser)
	api.GET("/reviews/rating/:username", h.GetRating)
	api.GET("/reviews/auction/:auctionId", h.GetReviewsForAuction)
}

func (h *ReviewHandler) SubmitReview(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)

	var req SubmitReviewRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind review request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	review, err := h.reviewService.SubmitReview(c.Request().Context(), claims.Username, services.SubmitReviewInput{
		AuctionID:        req.AuctionID,
		ReviewedUsername: req.ReviewedUsername,
		ReviewType:       domain.ReviewType(req.ReviewType),
		Rating:           req.Rating,
		Comment:          req.Comment,
	})
	if err != nil {
		h.log.Warn("Review rejected", "auction_id", req.AuctionID, "reviewer", claims.Username, "error", err)
		return respondError(c, err)
	}

	h.log.Info("Review submitted", "review_id", review.ID, "auction_id", review.AuctionID)
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) GetReviewsForUser(c echo.Context) error {
	reviews, err := h.reviewService.GetReviewsForUser(c.Request().Context(), c.Param("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) GetRating(c echo.Context) error {
	username := c.Param("username")

	average, count, err := h.reviewService.AverageRating(c.Request().Context(), username)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, RatingResponse{
		Username:      username,
		AverageRating: average,
		ReviewCount:   count,
	})
}

func (h *ReviewHandler) GetReviewsForAuction(c echo.Context) error {
	reviews, err := h.reviewService.GetReviewsForAuction(c.Request().Context(), c.Param("auctionId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}
