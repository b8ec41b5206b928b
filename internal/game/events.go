package game

import (
	"time"

	"github.com/lox/tablegames/internal/evaluator"
)

// EventType names an outbound table event.
type EventType string

const (
	EventSnapshot    EventType = "table_snapshot"
	EventRoundResult EventType = "round_result"
	EventRoll        EventType = "roll"
	EventCashOut     EventType = "cash_out"
	EventSystem      EventType = "system_message"
)

func (et EventType) String() string {
	return string(et)
}

// Event is published by a table after it changes. Exactly one payload field
// is set, matching Type.
type Event struct {
	Type      EventType           `json:"type"`
	TableID   string              `json:"tableId"`
	Snapshot  *Snapshot           `json:"snapshot,omitempty"`
	Result    *RoundResult        `json:"result,omitempty"`
	Roll      *evaluator.RollInfo `json:"roll,omitempty"`
	CashOut   *CashOut            `json:"cashOut,omitempty"`
	Message   string              `json:"message,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// EventSink receives table events. Publish is called from the table loop and
// must not block.
type EventSink interface {
	Publish(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// MultiSink fans an event out to every sink in order.
type MultiSink []EventSink

func (ms MultiSink) Publish(e Event) {
	for _, s := range ms {
		if s != nil {
			s.Publish(e)
		}
	}
}

type nopSink struct{}

func (nopSink) Publish(Event) {}
