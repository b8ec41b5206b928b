package server

import "github.com/lox/tablegames/internal/game"

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeJoinTable    MessageType = "join_table"
	MessageTypeLeaveTable   MessageType = "leave_table"
	MessageTypePlaceBet     MessageType = "place_bet"
	MessageTypePlayerAction MessageType = "player_action"
	MessageTypeListTables   MessageType = "list_tables"

	// Server to client messages
	MessageTypeAck       MessageType = "ack"
	MessageTypeError     MessageType = "error"
	MessageTypeTableList MessageType = "table_list"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// eventMessageType is the message type a table event travels under.
func eventMessageType(et game.EventType) MessageType {
	return MessageType(et)
}
