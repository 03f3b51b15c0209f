package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"geoquiz/internal/domain"
	"geoquiz/internal/game"
	"github.com/gorilla/websocket"
)

// WSHandler bridges the browser front end and the game core: intents come in
// as JSON messages, full session snapshots go out after every transition. It
// also drives the 1-second tick for each connected player so the core never
// owns a wall clock. The ticker is per player, not per connection: a second
// tab on the same playerId shares the session and must not double its clock.
type WSHandler struct {
	service  *game.Service
	upgrader websocket.Upgrader
	tick     time.Duration

	mu      sync.Mutex
	tickers map[string]*playerTicker
}

type playerTicker struct {
	refs int
	stop chan struct{}
}

func NewWSHandler(service *game.Service) *WSHandler {
	return &WSHandler{
		service: service,
		tick:    time.Second,
		tickers: make(map[string]*playerTicker),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type modePayload struct {
	Mode string `json:"mode"`
}

type difficultyPayload struct {
	Level int `json:"level"`
}

type answerPayload struct {
	OptionID string `json:"optionId"`
}

type namePayload struct {
	Name string `json:"name"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game
// use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if _, err := h.service.Join(r.Context(), playerID); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), playerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// Leave runs after cancel so the idle check sees this subscriber gone.
	defer h.service.Leave(r.Context(), playerID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// The shared player clock: one tick per second, whatever the session
	// state. The state machine itself decides whether the tick counts.
	h.acquireTicker(playerID)
	defer h.releaseTicker(playerID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, playerID, inbound); err != nil {
			sendOrDrop(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// sendOrDrop queues msg for the writer goroutine. A dead writer never drains
// send, so the message is dropped instead of wedging the read loop.
func sendOrDrop(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-writerDone:
	}
}

// acquireTicker starts the tick loop for playerID on its first connection
// and bumps the refcount on later ones.
func (h *WSHandler) acquireTicker(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.tickers[playerID]; ok {
		t.refs++
		return
	}
	t := &playerTicker{refs: 1, stop: make(chan struct{})}
	h.tickers[playerID] = t
	go h.runTicker(playerID, t.stop)
}

// releaseTicker drops one connection's hold; the loop stops when the last
// connection for the player goes away.
func (h *WSHandler) releaseTicker(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.tickers[playerID]
	if !ok {
		return
	}
	t.refs--
	if t.refs <= 0 {
		close(t.stop)
		delete(h.tickers, playerID)
	}
}

func (h *WSHandler) runTicker(playerID string, stop <-chan struct{}) {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = h.service.Tick(context.Background(), playerID)
		case <-stop:
			return
		}
	}
}

// dispatch routes one intent into the core. Invalid transitions and unknown
// options are deliberate no-ops: the state machine already ignored them, and
// the client is never shown an error for a stale click.
func (h *WSHandler) dispatch(r *http.Request, playerID string, inbound inboundMessage) error {
	ctx := r.Context()

	var err error
	switch inbound.Type {
	case "selectMode":
		var p modePayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errors.New("invalid selectMode payload")
		}
		err = h.service.SelectMode(ctx, playerID, domain.GameMode(p.Mode))
	case "selectDifficulty":
		var p difficultyPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errors.New("invalid selectDifficulty payload")
		}
		err = h.service.SelectDifficulty(ctx, playerID, p.Level)
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errors.New("invalid answer payload")
		}
		err = h.service.Answer(ctx, playerID, p.OptionID)
	case "hint":
		err = h.service.Hint(ctx, playerID)
	case "pause":
		err = h.service.TogglePause(ctx, playerID)
	case "exit":
		err = h.service.RequestExit(ctx, playerID)
	case "confirmExit":
		err = h.service.ConfirmExit(ctx, playerID)
	case "cancelExit":
		err = h.service.CancelExit(ctx, playerID)
	case "restart":
		err = h.service.Restart(ctx, playerID)
	case "submitName":
		var p namePayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errors.New("invalid submitName payload")
		}
		err = h.service.SubmitName(ctx, playerID, p.Name)
	case "leaderboard":
		err = h.service.ViewLeaderboard(ctx, playerID)
	case "advance":
		err = h.service.Advance(ctx, playerID)
	default:
		return errors.New("unknown message type: " + inbound.Type)
	}

	if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrOptionNotFound) {
		return nil
	}
	return err
}
