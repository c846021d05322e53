package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/artxchange/artx-api/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	subscriberSend = 16
	publishBuffer  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// VoteUpdate is pushed to feed subscribers after every vote.
type VoteUpdate struct {
	Type      string `json:"type"`
	ArtworkID string `json:"artwork_id"`
	Votes     int    `json:"votes"`
}

type subscriber struct {
	artworkID string
	conn      *websocket.Conn
	send      chan []byte
}

// FeedHandler streams live vote counts of an artwork over a websocket.
type FeedHandler struct {
	subscribers map[string]map[*subscriber]struct{}
	broadcast   chan VoteUpdate
	register    chan *subscriber
	unregister  chan *subscriber
	done        chan struct{}
}

func NewFeedHandler() *FeedHandler {
	return &FeedHandler{
		subscribers: make(map[string]map[*subscriber]struct{}),
		broadcast:   make(chan VoteUpdate, publishBuffer),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		done:        make(chan struct{}),
	}
}

// Run owns the subscriber set until ctx is done.
func (h *FeedHandler) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, subs := range h.subscribers {
				for s := range subs {
					close(s.send)
				}
			}
			h.subscribers = map[string]map[*subscriber]struct{}{}
			return
		case s := <-h.register:
			subs, ok := h.subscribers[s.artworkID]
			if !ok {
				subs = make(map[*subscriber]struct{})
				h.subscribers[s.artworkID] = subs
			}
			subs[s] = struct{}{}
		case s := <-h.unregister:
			h.drop(s)
		case update := <-h.broadcast:
			msg, err := json.Marshal(update)
			if err != nil {
				zap.L().Error("failed to encode vote update", zap.Error(err))
				continue
			}
			for s := range h.subscribers[update.ArtworkID] {
				select {
				case s.send <- msg:
				default:
					// Slow reader.
					h.drop(s)
				}
			}
		}
	}
}

func (h *FeedHandler) drop(s *subscriber) {
	subs, ok := h.subscribers[s.artworkID]
	if !ok {
		return
	}
	if _, ok = subs[s]; !ok {
		return
	}
	delete(subs, s)
	close(s.send)
	if len(subs) == 0 {
		delete(h.subscribers, s.artworkID)
	}
}

// Publish queues the artwork's vote count for its subscribers. It never
// blocks the caller; updates are dropped while the queue is full.
func (h *FeedHandler) Publish(artwork domain.Artwork) {
	select {
	case h.broadcast <- VoteUpdate{Type: "vote", ArtworkID: artwork.ID, Votes: artwork.Votes}:
	default:
		zap.L().Warn("vote feed full, dropping update", zap.String("artwork_id", artwork.ID))
	}
}

// HandleFeed godoc
// @Summary      Live vote count of an artwork
// @Description  Upgrades to a websocket and pushes a VoteUpdate after every vote for the artwork.
// @Tags         artworks
// @Produce      json
// @Param        artworkID  path  string  true  "Artwork ID"
// @Success      101        {string}  string  "Switching Protocols"
// @Router       /artworks/{artworkID}/feed [get]
func (h *FeedHandler) HandleFeed(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &subscriber{
		artworkID: ctx.Param("artworkID"),
		conn:      conn,
		send:      make(chan []byte, subscriberSend),
	}
	select {
	case h.register <- s:
	case <-h.done:
		conn.Close()
		return
	}

	go s.writePump()
	go s.readPump(h)
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and keeps the read deadline alive.
func (s *subscriber) readPump(h *FeedHandler) {
	defer func() {
		select {
		case h.unregister <- s:
		case <-h.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("feed connection closed", zap.Error(err))
			}
			return
		}
	}
}
