package types

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventOperationSubmitted       = "operation_submitted"
	EventOperationConfirmed       = "operation_confirmed"
	EventConfirmationRevoked      = "confirmation_revoked"
	EventOperationExecuted        = "operation_executed"
	EventOperationExecutionFailed = "operation_execution_failed"
	EventSignerAdded              = "signer_added"
	EventSignerRemoved            = "signer_removed"
	EventRequiredSignaturesChange = "required_signatures_changed"
	EventUpgraded                 = "upgraded"

	EventMinted                   = "minted"
	EventBurned                   = "burned"
	EventTransferred              = "transferred"
	EventFeeParametersSet         = "fee_parameters_set"
	EventBrokerStatusSet          = "broker_status_set"
	EventAccountFrozenSet         = "account_frozen_set"
	EventTransferRequested        = "transfer_requested"
	EventTransferRequestProcessed = "transfer_request_processed"
	EventCourtOrderExecuted       = "court_order_executed"
	EventTokenRecovered           = "token_recovered"
)

// Event is a record of a committed state change, published to the journal
// after the call that produced it is written.
type Event struct {
	Name    string          `json:"name"`
	Emitter common.Address  `json:"emitter"`
	Data    json.RawMessage `json:"data"`
	Time    time.Time       `json:"time"`
}

// EventBuffer collects events of one call. Child buffers are merged back only
// when the nested execution succeeds.
type EventBuffer struct {
	events []Event
}

func NewEventBuffer() *EventBuffer {
	return &EventBuffer{}
}

func (b *EventBuffer) Emit(e Event) {
	b.events = append(b.events, e)
}

func (b *EventBuffer) Merge(child *EventBuffer) {
	b.events = append(b.events, child.events...)
}

func (b *EventBuffer) Events() []Event {
	return b.events
}

type eventsKey struct{}
type timeKey struct{}

func WithEvents(ctx context.Context, buf *EventBuffer) context.Context {
	return context.WithValue(ctx, eventsKey{}, buf)
}

// EventsFrom returns the buffer of ctx. Without one, events are dropped.
func EventsFrom(ctx context.Context) *EventBuffer {
	if buf, ok := ctx.Value(eventsKey{}).(*EventBuffer); ok {
		return buf
	}
	return NewEventBuffer()
}

func Emit(ctx context.Context, name string, emitter common.Address, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", name, err)
	}
	EventsFrom(ctx).Emit(Event{
		Name:    name,
		Emitter: emitter,
		Data:    raw,
		Time:    BlockTime(ctx),
	})
	return nil
}

// WithBlockTime fixes the time every state change of a call is stamped with.
func WithBlockTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey{}, t.UTC())
}

func BlockTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey{}).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}
