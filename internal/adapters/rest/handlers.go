package rest

import (
	"errors"
	"net/http"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/bid"
	"bidhouse-auction-service/internal/domain/shared"
	"bidhouse-auction-service/internal/ports/inbound"
	"bidhouse-auction-service/internal/ports/outbound"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler exposes the auction and bid services over HTTP
type Handler struct {
	auctionService inbound.AuctionService
	bidService     inbound.BidService
	identity       outbound.Identity
	logger         zerolog.Logger
}

type HandlerParams struct {
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	Identity       outbound.Identity
	Logger         zerolog.Logger
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		auctionService: params.AuctionService,
		bidService:     params.BidService,
		identity:       params.Identity,
		logger:         params.Logger.With().Str("component", "rest_handler").Logger(),
	}
}

type createAuctionBody struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ImageURL        string `json:"image_url"`
	StartingPrice   int64  `json:"starting_price"`
	DurationMinutes int    `json:"duration_minutes"`
}

type placeBidBody struct {
	Amount int64 `json:"amount"`
}

// CreateAuction handles POST /auctions
func (h *Handler) CreateAuction(c *gin.Context) {
	sellerID, err := h.identity.CallerID(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var body createAuctionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	created, err := h.auctionService.CreateAuction(c.Request.Context(), inbound.CreateAuctionRequest{
		SellerID:        sellerID,
		Title:           body.Title,
		Description:     body.Description,
		ImageURL:        body.ImageURL,
		StartingPrice:   body.StartingPrice,
		DurationMinutes: body.DurationMinutes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListAuctions handles GET /auctions
func (h *Handler) ListAuctions(c *gin.Context) {
	req := inbound.ListAuctionsRequest{}

	if statusParam := c.Query("status"); statusParam != "" {
		status := auction.Status(statusParam)
		req.Status = &status
	}

	auctions, err := h.auctionService.ListAuctions(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if auctions == nil {
		auctions = []*auction.Auction{}
	}
	c.JSON(http.StatusOK, auctions)
}

// GetAuction handles GET /auctions/:id
func (h *Handler) GetAuction(c *gin.Context) {
	auctionID, ok := h.auctionIDParam(c)
	if !ok {
		return
	}

	found, err := h.auctionService.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// ListBids handles GET /auctions/:id/bids
func (h *Handler) ListBids(c *gin.Context) {
	auctionID, ok := h.auctionIDParam(c)
	if !ok {
		return
	}

	bids, err := h.bidService.GetBids(c.Request.Context(), auctionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if bids == nil {
		bids = []*bid.Bid{}
	}
	c.JSON(http.StatusOK, bids)
}

// PlaceBid handles POST /auctions/:id/bids
func (h *Handler) PlaceBid(c *gin.Context) {
	userID, err := h.identity.CallerID(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	auctionID, ok := h.auctionIDParam(c)
	if !ok {
		return
	}

	var body placeBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	placed, err := h.bidService.PlaceBid(c.Request.Context(), inbound.PlaceBidRequest{
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    body.Amount,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, placed)
}

func (h *Handler) auctionIDParam(c *gin.Context) (uuid.UUID, bool) {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return uuid.Nil, false
	}
	return auctionID, true
}

// respondError maps the domain error taxonomy onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrAuctionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, shared.ErrAuctionEnded),
		errors.Is(err, shared.ErrBidTooLow):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, shared.ErrInvalidTitle),
		errors.Is(err, shared.ErrInvalidStartingPrice),
		errors.Is(err, shared.ErrInvalidDuration):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, shared.ErrWriteConflict),
		errors.Is(err, shared.ErrStoreUnavailable):
		// Transient: the client may retry
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error in REST handler")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
