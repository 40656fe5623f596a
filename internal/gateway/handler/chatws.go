package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ticketsmith/internal/gateway/service/chat"
	"ticketsmith/internal/ticket"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type    string            `json:"type"`
	Ticket  *ticket.Generated `json:"ticket,omitempty"`
	Message string            `json:"message,omitempty"`
}

type chatWSOutbound struct {
	Type          string            `json:"type"`
	SessionID     string            `json:"sessionId,omitempty"`
	UpdatedTicket *ticket.Generated `json:"updatedTicket,omitempty"`
	Message       string            `json:"message,omitempty"`
	Code          string            `json:"code,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// HandleChatWS serves the refinement chat over a websocket. Each
// connection owns at most one editing session; the session and its
// history die with the connection.
func (h *Handler) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		log.Printf("chat ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan chatWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	var sessionID string
	defer func() {
		if sessionID != "" {
			h.chat.Close(sessionID)
		}
	}()

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushChatWS(writeCh, chatWSOutbound{Type: "pong"})
		case "open":
			if in.Ticket == nil {
				pushChatWS(writeCh, chatWSOutbound{Type: "error", Code: "invalid_argument", Error: "ticket is required"})
				continue
			}
			if sessionID != "" {
				h.chat.Close(sessionID)
			}
			sessionID = uuid.NewString()
			h.chat.Open(sessionID, *in.Ticket)
			pushChatWS(writeCh, chatWSOutbound{Type: "opened", SessionID: sessionID})
		case "send":
			if sessionID == "" {
				pushChatWS(writeCh, chatWSOutbound{Type: "error", Code: "failed_precondition", Error: "no open session"})
				continue
			}
			msg := strings.TrimSpace(in.Message)
			if msg == "" {
				pushChatWS(writeCh, chatWSOutbound{Type: "error", Code: "invalid_argument", Error: "message is required"})
				continue
			}
			result, err := h.chat.Send(ctx, sessionID, msg)
			if err != nil {
				pushChatWS(writeCh, chatWSOutbound{Type: "error", Code: chatWSErrorCode(err), Error: chatWSErrorMessage(err)})
				continue
			}
			pushChatWS(writeCh, chatWSOutbound{
				Type:          "refined",
				SessionID:     sessionID,
				UpdatedTicket: &result.UpdatedTicket,
				Message:       result.Message,
			})
		case "close":
			if sessionID != "" {
				h.chat.Close(sessionID)
				sessionID = ""
			}
			pushChatWS(writeCh, chatWSOutbound{Type: "closed"})
		default:
			pushChatWS(writeCh, chatWSOutbound{Type: "error", Code: "invalid_argument", Error: "unsupported type: " + in.Type})
		}
	}
}

func chatWSErrorCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrBusy):
		return "busy"
	case errors.Is(err, chat.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// chatWSErrorMessage keeps provider internals out of the client-facing
// error text.
func chatWSErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrBusy):
		return "A refinement is already in progress for this session."
	case errors.Is(err, chat.ErrNotFound):
		return "Session not found."
	default:
		log.Printf("chat refinement failed: %v", err)
		return "Failed to refine the ticket. Please try again."
	}
}

func pushChatWS(ch chan<- chatWSOutbound, out chatWSOutbound) {
	select {
	case ch <- out:
	default:
		log.Printf("chat ws outbound buffer full; dropping %s", out.Type)
	}
}
