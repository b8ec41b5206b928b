package server

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

// JoinTableData seats a participant. With TableID empty the participant is
// seated at any table of Kind.
type JoinTableData struct {
	TableID       string          `json:"tableId,omitempty"`
	Kind          game.Kind       `json:"kind,omitempty"`
	ParticipantID string          `json:"participantId"`
	DisplayName   string          `json:"displayName,omitempty"`
	BuyIn         decimal.Decimal `json:"buyIn"`
}

type LeaveTableData struct {
	TableID       string `json:"tableId,omitempty"`
	ParticipantID string `json:"participantId,omitempty"`
}

type PlaceBetData struct {
	TableID       string       `json:"tableId,omitempty"`
	ParticipantID string       `json:"participantId,omitempty"`
	Bet           game.BetSpec `json:"bet"`
}

// PlayerActionData carries a decision. Hand selects a split blackjack hand;
// omitted, it applies to the hand in play.
type PlayerActionData struct {
	TableID       string      `json:"tableId,omitempty"`
	ParticipantID string      `json:"participantId,omitempty"`
	Action        game.Action `json:"action"`
	Hand          *int        `json:"hand,omitempty"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableJoinedData struct {
	TableID     string           `json:"tableId"`
	Participant game.Participant `json:"participant"`
}

type TableLeftData struct {
	TableID string       `json:"tableId"`
	CashOut game.CashOut `json:"cashOut"`
}

type BetPlacedData struct {
	TableID string     `json:"tableId"`
	Bet     ledger.Bet `json:"bet"`
}

type ActionAppliedData struct {
	TableID string      `json:"tableId"`
	Action  game.Action `json:"action"`
}

type TableListData struct {
	Tables []*game.Snapshot `json:"tables"`
}

// messageFromEvent wraps a table event for the wire.
func messageFromEvent(e game.Event) (*Message, error) {
	msg, err := NewMessage(eventMessageType(e.Type), e)
	if err != nil {
		return nil, err
	}
	msg.Timestamp = e.Timestamp
	return msg, nil
}

func errorMessage(requestID, code, message string) *Message {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		// ErrorData always marshals.
		panic(err)
	}
	msg.RequestID = requestID
	return msg
}
