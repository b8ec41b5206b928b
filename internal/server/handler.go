package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/lox/tablegames/internal/game"
)

var errNoRegistry = errors.New("registry not attached")

// session is the per-client state a command may read or bind: the
// participant the client plays as and the table it watches.
type session interface {
	GetPlayer() string
	SetPlayer(playerID string)
	GetTable() string
	SetTable(tableID string)
}

// handler turns inbound messages into registry calls. Every command is
// answered with an ack or an error carrying the request id.
type handler struct {
	registry *Registry
	logger   *log.Logger
}

func (h *handler) handle(ctx context.Context, s session, msg *Message) *Message {
	h.logger.Debug("Received message", "type", msg.Type, "player", s.GetPlayer(), "requestId", msg.RequestID)

	if h.registry == nil {
		return errorMessage(msg.RequestID, CodeInternal, errNoRegistry.Error())
	}

	var (
		reply any
		rtype = MessageTypeAck
		err   error
	)
	switch msg.Type {
	case MessageTypeJoinTable:
		var data JoinTableData
		if !decode(msg, &data) {
			return errorMessage(msg.RequestID, CodeInvalidMessage, "Failed to parse join table data")
		}
		reply, err = h.joinTable(ctx, s, data)

	case MessageTypeLeaveTable:
		var data LeaveTableData
		if !decode(msg, &data) {
			return errorMessage(msg.RequestID, CodeInvalidMessage, "Failed to parse leave table data")
		}
		reply, err = h.leaveTable(ctx, s, data)

	case MessageTypePlaceBet:
		var data PlaceBetData
		if !decode(msg, &data) {
			return errorMessage(msg.RequestID, CodeInvalidMessage, "Failed to parse bet data")
		}
		reply, err = h.placeBet(ctx, s, data)

	case MessageTypePlayerAction:
		var data PlayerActionData
		if !decode(msg, &data) {
			return errorMessage(msg.RequestID, CodeInvalidMessage, "Failed to parse player action data")
		}
		reply, err = h.playerAction(ctx, s, data)

	case MessageTypeListTables:
		rtype = MessageTypeTableList
		reply = TableListData{Tables: h.registry.List()}

	default:
		return errorMessage(msg.RequestID, CodeUnknownMessageType, "Unknown message type: "+msg.Type.String())
	}

	if err != nil {
		h.logger.Info("Command rejected", "type", msg.Type, "player", s.GetPlayer(), "error", err)
		return errorMessage(msg.RequestID, ErrorCode(err), err.Error())
	}
	out, err := NewMessage(rtype, reply)
	if err != nil {
		h.logger.Error("Failed to encode reply", "type", msg.Type, "error", err)
		return errorMessage(msg.RequestID, CodeInternal, "failed to encode reply")
	}
	out.RequestID = msg.RequestID
	return out
}

func decode(msg *Message, v any) bool {
	if len(msg.Data) == 0 {
		return false
	}
	return json.Unmarshal(msg.Data, v) == nil
}

func (h *handler) joinTable(ctx context.Context, s session, data JoinTableData) (any, error) {
	if data.ParticipantID == "" {
		data.ParticipantID = s.GetPlayer()
	}
	p := game.Participant{
		ID:          data.ParticipantID,
		DisplayName: data.DisplayName,
		Balance:     data.BuyIn,
	}

	var (
		tableID = data.TableID
		seated  game.Participant
		err     error
	)
	if tableID == "" {
		var t *game.Table
		t, seated, err = h.registry.JoinAny(ctx, data.Kind, p)
		if t != nil {
			tableID = t.ID()
		}
	} else {
		seated, err = h.registry.Join(ctx, tableID, p)
	}
	if err != nil {
		return nil, err
	}

	s.SetPlayer(seated.ID)
	s.SetTable(tableID)
	h.logger.Info("Participant seated", "table", tableID, "participant", seated.ID, "seat", seated.Seat)
	return TableJoinedData{TableID: tableID, Participant: seated}, nil
}

func (h *handler) leaveTable(ctx context.Context, s session, data LeaveTableData) (any, error) {
	tableID, playerID := h.target(s, data.TableID, data.ParticipantID)
	co, err := h.registry.Leave(ctx, tableID, playerID)
	if err != nil {
		return nil, err
	}
	if s.GetTable() == tableID {
		s.SetTable("")
	}
	return TableLeftData{TableID: tableID, CashOut: co}, nil
}

func (h *handler) placeBet(ctx context.Context, s session, data PlaceBetData) (any, error) {
	tableID, playerID := h.target(s, data.TableID, data.ParticipantID)
	bet, err := h.registry.PlaceBet(ctx, tableID, playerID, data.Bet)
	if err != nil {
		return nil, err
	}
	return BetPlacedData{TableID: tableID, Bet: bet}, nil
}

func (h *handler) playerAction(ctx context.Context, s session, data PlayerActionData) (any, error) {
	tableID, playerID := h.target(s, data.TableID, data.ParticipantID)
	hand := -1
	if data.Hand != nil {
		hand = *data.Hand
	}
	if err := h.registry.Act(ctx, tableID, playerID, data.Action, hand); err != nil {
		return nil, err
	}
	return ActionAppliedData{TableID: tableID, Action: data.Action}, nil
}

// target fills a command's table and participant from the session when
// the client left them out.
func (h *handler) target(s session, tableID, playerID string) (string, string) {
	if tableID == "" {
		tableID = s.GetTable()
	}
	if playerID == "" {
		playerID = s.GetPlayer()
	}
	return tableID, playerID
}
