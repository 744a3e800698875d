package ws

import (
	"encoding/json"
	"errors"
)

// Wire protocol: JSON frames {"type": "<event>", "data": {...}} in both
// directions over a single WebSocket per client.

// Client -> server events.
const (
	EventJoin           = "join"
	EventSendMessage    = "sendMessage"
	EventTyping         = "typing"
	EventStopTyping     = "stopTyping"
	EventMarkAsRead     = "markAsRead"
	EventGetOnlineUsers = "getOnlineUsers"
)

// Server -> client events.
const (
	EventUserOnline        = "userOnline"
	EventUserOffline       = "userOffline"
	EventOnlineUsers       = "onlineUsers"
	EventMessageConfirmed  = "messageConfirmed"
	EventReceiveMessage    = "receiveMessage"
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventMessageError      = "messageError"
	EventMessagesRead      = "messagesRead"
)

// Frame is the envelope for every event in either direction.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinPayload registers presence for an authenticated user.
type JoinPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}

func (p *JoinPayload) Validate() error {
	if p.UserID == "" {
		return errors.New("userId is required")
	}
	return nil
}

// SendMessagePayload is the inbound chat event.
type SendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
	SenderName string `json:"senderName"`
	SenderRole string `json:"senderRole"`
}

func (p *SendMessagePayload) Validate() error {
	switch {
	case p.SenderID == "":
		return errors.New("senderId is required")
	case p.ReceiverID == "":
		return errors.New("receiverId is required")
	case p.Message == "":
		return errors.New("message must not be empty")
	case p.SenderName == "":
		return errors.New("senderName is required")
	case p.SenderRole == "":
		return errors.New("senderRole is required")
	}
	return nil
}

// TypingPayload carries a transient typing indicator.
type TypingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	SenderName string `json:"senderName,omitempty"`
}

func (p *TypingPayload) Validate() error {
	switch {
	case p.SenderID == "":
		return errors.New("senderId is required")
	case p.ReceiverID == "":
		return errors.New("receiverId is required")
	}
	return nil
}

// MarkAsReadPayload requests the batch read-receipt transition for every
// unread message from SenderID to ReceiverID.
type MarkAsReadPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

func (p *MarkAsReadPayload) Validate() error {
	switch {
	case p.SenderID == "":
		return errors.New("senderId is required")
	case p.ReceiverID == "":
		return errors.New("receiverId is required")
	}
	return nil
}

// OnlinePayload announces a user coming online.
type OnlinePayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// OfflinePayload announces a user going offline.
type OfflinePayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// TypingNotice is relayed to the receiver's room.
type TypingNotice struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName,omitempty"`
}

// MessagesReadPayload reports a committed read-receipt batch to the sender.
// Count is the number of messages transitioned in that batch.
type MessagesReadPayload struct {
	ReadBy string `json:"readBy"`
	Count  int    `json:"count"`
}

// ErrorPayload is sent only to the originating connection.
type ErrorPayload struct {
	Error string `json:"error"`
}
