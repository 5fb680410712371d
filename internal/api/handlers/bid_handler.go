package handlers

import (
	"encoding/json"
	"net/http"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
)

// BidHandler serves the bid ledger API. The bidding service is routed with
// gorilla/mux rather than echo because the live feed shares its router.
type BidHandler struct {
	bidService *services.BidService
	log        logger.Logger
}

type PlaceBidRequest struct {
	AuctionID string  `json:"auction_id"`
	Amount    float64 `json:"amount"`
}

func NewBidHandler(bidService *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		log:        log,
	}
}

func (h *BidHandler) Register(r *mux.Router, secret string) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AuthenticateHTTP(secret, h.log))

	api.HandleFunc("/bids", middleware.RequireRoleHTTP(h.PlaceBid, auth.RoleBuyer, auth.RoleAdmin)).Methods(http.MethodPost)
	api.HandleFunc("/bids/{auctionId}", h.GetBidHistory).Methods(http.MethodGet)
}

func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("Failed to decode bid request", "error", err)
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	bid, err := h.bidService.PlaceBid(r.Context(), req.AuctionID, claims.Username, req.Amount)
	if err != nil {
		h.log.Warn("Bid rejected", "auction_id", req.AuctionID, "bidder", claims.Username, "error", err)
		writeError(w, err)
		return
	}

	h.log.Info("Bid accepted", "bid_id", bid.ID, "auction_id", bid.AuctionID, "amount", bid.Amount)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(bid)
}

func (h *BidHandler) GetBidHistory(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["auctionId"]

	bids, err := h.bidService.GetBidHistory(r.Context(), auctionID)
	if err != nil {
		h.log.Error("Failed to load bid history", "auction_id", auctionID, "error", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bids)
}
