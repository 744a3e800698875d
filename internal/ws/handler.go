package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"taskhub/internal/domain"
	"taskhub/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// MakeHandler returns an HTTP handler for the /ws endpoint. The session is
// established out-of-band via the auth cookies; the socket itself only checks
// the origin. Dispatches events:
//   - join           -> register presence, broadcast userOnline
//   - sendMessage    -> persist & fan out messageConfirmed / receiveMessage
//   - typing         -> relay userTyping to the receiver's room
//   - stopTyping     -> relay userStoppedTyping to the receiver's room
//   - markAsRead     -> batch read transition, emit messagesRead to the sender
//   - getOnlineUsers -> reply with the presence snapshot
func MakeHandler(
	hub *Hub,
	users domain.UserRepository,
	msgSvc *service.MessageService,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer sock.Close()

		ctx := r.Context()
		conn := newConn(sock)
		defer hub.Leave(conn)

		for {
			_, data, err := sock.ReadMessage()
			if err != nil {
				break
			}
			var frame Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				sendError(conn, "malformed frame")
				continue
			}

			switch frame.Type {

			case EventJoin:
				var p JoinPayload
				if err := decode(frame.Data, &p); err != nil {
					sendError(conn, err.Error())
					continue
				}
				// Resolve missing display fields once, at join time.
				if p.Name == "" || p.Role == "" {
					if u, err := users.GetByID(ctx, p.UserID); err == nil {
						if p.Name == "" {
							p.Name = u.Name
						}
						if p.Role == "" {
							p.Role = u.Role
						}
						if p.Email == "" {
							p.Email = u.Email
						}
					}
				}
				if p.Name == "" {
					p.Name = p.Email
				}
				hub.Join(conn, Profile{
					UserID: p.UserID,
					Name:   p.Name,
					Role:   p.Role,
					Email:  p.Email,
				})
				log.Printf("ws: %s (%s) joined room %s", p.Email, p.Role, p.UserID)

			case EventSendMessage:
				var p SendMessagePayload
				if err := decode(frame.Data, &p); err != nil {
					sendError(conn, err.Error())
					continue
				}
				msg, err := msgSvc.Send(ctx, service.SendMessageInput{
					SenderID:   p.SenderID,
					ReceiverID: p.ReceiverID,
					Message:    p.Message,
					SenderName: p.SenderName,
					SenderRole: p.SenderRole,
				})
				if err != nil {
					log.Printf("ws: send message: %v", err)
					sendError(conn, "Failed to send message")
					continue
				}
				emit(ctx, hub, msg.SenderID, EventMessageConfirmed, msg)
				emit(ctx, hub, msg.ReceiverID, EventReceiveMessage, msg)

			case EventTyping:
				var p TypingPayload
				if err := decode(frame.Data, &p); err != nil {
					sendError(conn, err.Error())
					continue
				}
				emit(ctx, hub, p.ReceiverID, EventUserTyping, TypingNotice{
					SenderID:   p.SenderID,
					SenderName: p.SenderName,
				})

			case EventStopTyping:
				var p TypingPayload
				if err := decode(frame.Data, &p); err != nil {
					sendError(conn, err.Error())
					continue
				}
				emit(ctx, hub, p.ReceiverID, EventUserStoppedTyping, TypingNotice{
					SenderID: p.SenderID,
				})

			case EventMarkAsRead:
				var p MarkAsReadPayload
				if err := decode(frame.Data, &p); err != nil {
					sendError(conn, err.Error())
					continue
				}
				count, err := msgSvc.MarkRead(ctx, p.SenderID, p.ReceiverID)
				if err != nil {
					log.Printf("ws: mark as read: %v", err)
					sendError(conn, "Failed to mark messages as read")
					continue
				}
				emit(ctx, hub, p.SenderID, EventMessagesRead, MessagesReadPayload{
					ReadBy: p.ReceiverID,
					Count:  count,
				})

			case EventGetOnlineUsers:
				if err := conn.Send(EventOnlineUsers, hub.OnlineUsers()); err != nil {
					log.Printf("ws: send online users: %v", err)
				}

			default:
				log.Printf("ws: unknown event type %q", frame.Type)
			}
		}
	}
}

type validator interface {
	Validate() error
}

func decode(data json.RawMessage, p validator) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, p); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
	}
	return p.Validate()
}

func emit(ctx context.Context, hub *Hub, room, event string, payload any) {
	if err := hub.EmitToRoom(ctx, room, event, payload); err != nil {
		log.Printf("ws: emit %s to room %s: %v", event, room, err)
	}
}

func sendError(c Conn, msg string) {
	if err := c.Send(EventMessageError, ErrorPayload{Error: msg}); err != nil {
		log.Printf("ws: send error frame: %v", err)
	}
}
