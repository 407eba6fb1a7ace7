package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/battle-odds/internal/odds"
	"github.com/freeeve/battle-odds/internal/service"
)

const (
	writeWait     = 10 * time.Second
	requestWait   = 30 * time.Second
	maxMsgSize    = 4096
	sendBufSize   = 16
	progressSteps = 20
)

// Event types sent over WebSocket.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type progressData struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

type errorData struct {
	Error string `json:"error"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware
	},
}

// Stream handles GET /api/v1/odds/ws. The client sends one odds request as
// JSON; the server answers with progress events followed by a single result
// or error event, then closes the connection.
func (h *OddsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(requestWait))
	var req odds.Request
	if err := conn.ReadJSON(&req); err != nil {
		writeEvent(conn, WSEvent{Type: EventError, Data: errorData{"invalid request"}})
		return
	}
	if err := h.checkRuns(req); err != nil {
		writeEvent(conn, WSEvent{Type: EventError, Data: errorData{err.Error()}})
		return
	}
	conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client sends nothing more; a read error means it went away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	send := make(chan WSEvent, sendBufSize)
	written := make(chan struct{})
	go func() {
		defer close(written)
		for ev := range send {
			if err := writeEvent(conn, ev); err != nil {
				cancel()
				for range send {
				}
				return
			}
		}
	}()

	step := max(req.Runs/progressSteps, 1)
	progress := func(done, total int) {
		if done%step != 0 && done != total {
			return
		}
		select {
		case send <- WSEvent{Type: EventProgress, Data: progressData{Done: done, Total: total}}:
		default:
			log.Debug().Int("done", done).Msg("Dropping progress event, buffer full")
		}
	}

	run, stored, err := h.svc.CalculateWithProgress(ctx, req, progress)
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		send <- WSEvent{Type: EventError, Data: errorData{err.Error()}}
	case err != nil:
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Odds calculation failed")
		}
		send <- WSEvent{Type: EventError, Data: errorData{"calculation failed"}}
	default:
		send <- WSEvent{Type: EventResult, Data: oddsResponse{Run: run, Stored: stored}}
	}
	close(send)
	<-written

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func writeEvent(conn *websocket.Conn, ev WSEvent) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
