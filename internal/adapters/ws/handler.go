package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bidhouse-auction-service/internal/domain/auction"
	"bidhouse-auction-service/internal/domain/shared"
	"bidhouse-auction-service/internal/ports/inbound"
	"bidhouse-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsHandler manages WebSocket connections and message routing
type WsHandler struct {
	clients        map[string]*WsClient // clientID -> client
	clientsMu      sync.RWMutex
	eventChannels  map[string]chan outbound.Event // clientID -> local event channel
	channelsMu     sync.RWMutex
	upgrader       websocket.Upgrader
	auctionService inbound.AuctionService
	bidService     inbound.BidService
	broadcaster    outbound.Broadcaster
	identity       outbound.Identity
	logger         zerolog.Logger
}

type WsHandlerParams struct {
	Upgrader       websocket.Upgrader
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	Broadcaster    outbound.Broadcaster
	Identity       outbound.Identity
	Logger         zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		clients:        make(map[string]*WsClient),
		eventChannels:  make(map[string]chan outbound.Event),
		upgrader:       params.Upgrader,
		auctionService: params.AuctionService,
		bidService:     params.BidService,
		broadcaster:    params.Broadcaster,
		identity:       params.Identity,
		logger:         params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket handles WebSocket connection upgrades
func (h *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := h.identity.CallerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		UserID:  userID,
		Conn:    conn,
		Handler: h,
		Logger:  h.logger,
	})

	h.registerClient(client)
	h.createEventChannel(client.id)
	client.Start()

	go h.listenForClientEvents(client)

	go func() {
		<-client.ctx.Done()
		h.unregisterClient(client)
	}()

	h.logger.Info().Str("client_id", client.id).Str("user_id", client.userID.String()).Msg("WebSocket client connected")
}

func (h *WsHandler) createEventChannel(clientID string) chan outbound.Event {
	h.channelsMu.Lock()
	defer h.channelsMu.Unlock()

	if eventChan, exists := h.eventChannels[clientID]; exists {
		return eventChan
	}

	eventChan := make(chan outbound.Event, 100)
	h.eventChannels[clientID] = eventChan
	return eventChan
}

func (h *WsHandler) getEventChannel(clientID string) chan outbound.Event {
	h.channelsMu.RLock()
	defer h.channelsMu.RUnlock()

	return h.eventChannels[clientID]
}

func (h *WsHandler) removeEventChannel(clientID string) {
	h.channelsMu.Lock()
	defer h.channelsMu.Unlock()

	if eventChan, exists := h.eventChannels[clientID]; exists {
		close(eventChan)
		delete(h.eventChannels, clientID)
	}
}

func (h *WsHandler) registerClient(client *WsClient) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.clients[client.id] = client
}

func (h *WsHandler) unregisterClient(client *WsClient) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	delete(h.clients, client.id)
	client.Stop()
	h.removeEventChannel(client.id)

	h.logger.Info().
		Str("client_id", client.id).
		Str("user_id", client.userID.String()).
		Int("total_clients", len(h.clients)).
		Msg("WebSocket client disconnected")
}

// listenForClientEvents forwards broadcast events to the client socket
func (h *WsHandler) listenForClientEvents(client *WsClient) {
	eventChan := h.getEventChannel(client.id)
	if eventChan == nil {
		h.logger.Error().Str("client_id", client.id).Msg("No event channel found for client")
		return
	}

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			wsMessage := h.convertEventToMessage(event)

			if err := client.Send(wsMessage); err != nil {
				h.logger.Error().Err(err).Str("client_id", client.id).Msg("Failed to send event to WebSocket client")
			}

		case <-client.ctx.Done():
			return
		}
	}
}

func (h *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	switch msg.Type {
	case MessageTypeSubscribe:
		return h.handleSubscribe(client, msg)

	case MessageTypeUnsubscribe:
		return h.handleUnsubscribe(client, msg)

	case MessageTypePlaceBid:
		return h.handlePlaceBid(client, msg)

	case MessageTypeGetAuction:
		return h.handleGetAuction(client, msg)

	case MessageTypeListAuctions:
		return h.handleListAuctions(client, msg)

	default:
		h.logger.Warn().Str("client_id", client.id).Str("message_type", string(msg.Type)).Msg("Unknown message type from client")
		return shared.ErrUnknownMessageType
	}
}

func (h *WsHandler) convertEventToMessage(event outbound.Event) *ServerMessage {
	switch event.Type {
	case outbound.EventTypeBidPlaced:
		return &ServerMessage{
			Type:      MessageTypeBidPlaced,
			AuctionID: &event.AuctionID,
			Data:      event.Data,
			Timestamp: event.Timestamp,
		}
	case outbound.EventTypeAuctionEnded:
		return &ServerMessage{
			Type:      MessageTypeAuctionEnded,
			AuctionID: &event.AuctionID,
			Data:      event.Data,
			Timestamp: event.Timestamp,
		}
	default:
		return &ServerMessage{
			Type:      MessageTypeAuctionUpdate,
			AuctionID: &event.AuctionID,
			Data:      event.Data,
			Timestamp: event.Timestamp,
		}
	}
}

func (h *WsHandler) handleSubscribe(client *WsClient, msg *ClientMessage) error {
	eventChan := h.getEventChannel(client.id)
	if eventChan == nil {
		return shared.ErrClientEventChannelNotFound
	}

	if err := h.broadcaster.Subscribe(context.Background(), *msg.AuctionID, client.id, eventChan); err != nil {
		h.logger.Error().Err(err).
			Str("client_id", client.id).
			Str("auction_id", msg.AuctionID.String()).
			Msg("Failed to subscribe to auction")
		return err
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.AuctionID = msg.AuctionID
	response.Data["status"] = "subscribed"
	return client.Send(response)
}

func (h *WsHandler) handleUnsubscribe(client *WsClient, msg *ClientMessage) error {
	if err := h.broadcaster.Unsubscribe(context.Background(), *msg.AuctionID, client.id); err != nil {
		return err
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.AuctionID = msg.AuctionID
	response.Data["status"] = "unsubscribed"
	return client.Send(response)
}

// handlePlaceBid runs the bid pipeline for a bid received over the socket
func (h *WsHandler) handlePlaceBid(client *WsClient, msg *ClientMessage) error {
	amount, ok := msg.Data["amount"].(float64)
	if !ok {
		return shared.ErrInvalidAmount
	}

	bidRequest := inbound.PlaceBidRequest{
		AuctionID: *msg.AuctionID,
		UserID:    client.userID,
		Amount:    int64(amount),
	}

	placed, err := h.bidService.PlaceBid(context.Background(), bidRequest)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error(), msg.AuctionID))
	}

	h.logger.Info().
		Str("bid_id", placed.ID.String()).
		Str("auction_id", msg.AuctionID.String()).
		Str("user_id", client.userID.String()).
		Int64("amount", placed.Amount).
		Msg("Bid placed over WebSocket")
	return nil
}

func (h *WsHandler) handleGetAuction(client *WsClient, msg *ClientMessage) error {
	found, err := h.auctionService.GetAuction(context.Background(), *msg.AuctionID)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error(), msg.AuctionID))
	}

	return client.Send(h.createAuctionResponse(found, MessageTypeAuctionUpdate, msg.AuctionID))
}

func (h *WsHandler) handleListAuctions(client *WsClient, msg *ClientMessage) error {
	limit := 10
	if limitVal, ok := msg.Data["limit"].(float64); ok && limitVal > 0 {
		limit = int(limitVal)
	}

	page := 1
	if pageVal, ok := msg.Data["page"].(float64); ok && pageVal > 0 {
		page = int(pageVal)
	}

	auctions, err := h.auctionService.ListAuctions(context.Background(), inbound.ListAuctionsRequest{
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return client.Send(NewErrorMessage(err.Error(), nil))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["auctions"] = auctions
	response.Data["count"] = len(auctions)
	return client.Send(response)
}

func (h *WsHandler) createAuctionResponse(a *auction.Auction, msgType MessageType, auctionID *uuid.UUID) *ServerMessage {
	response := NewServerMessage(msgType)
	response.AuctionID = auctionID

	response.Data["auction_id"] = a.ID
	response.Data["seller_id"] = a.SellerID
	response.Data["title"] = a.Title
	response.Data["current_price"] = a.CurrentPrice
	response.Data["end_time"] = a.EndTime.Format(time.RFC3339)
	response.Data["status"] = a.Status

	return response
}
