package operation_fsm

import (
	"errors"
	"sync"

	"github.com/lidofinance/rta/fsm/fsm"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

const (
	FsmName = "operation_fsm"

	StateOperationPending  = fsm.State("state_operation_pending")
	StateOperationExecuted = fsm.State("state_operation_executed")

	EventConfirmOperation = fsm.Event("event_operation_confirm")
	EventRevokeOperation  = fsm.Event("event_operation_revoke")

	// Only the registry evaluation may execute an operation.
	eventExecuteOperationInternal = fsm.Event("event_operation_execute_internal")
)

type OperationFSM struct {
	*fsm.FSM
	payload   *types.Operation
	payloadMu sync.RWMutex
}

// New returns a machine over op, positioned at the state op is stored in.
func New(op *types.Operation) *OperationFSM {
	machine := &OperationFSM{payload: op}

	machine.FSM = fsm.MustNewFSM(
		FsmName,
		StateOperationPending,
		[]fsm.EventDesc{
			{Name: EventConfirmOperation, SrcState: []fsm.State{StateOperationPending}, DstState: StateOperationPending},
			{Name: EventRevokeOperation, SrcState: []fsm.State{StateOperationPending}, DstState: StateOperationPending},

			{Name: eventExecuteOperationInternal, SrcState: []fsm.State{StateOperationPending}, DstState: StateOperationExecuted, IsInternal: true},
		},
		fsm.Callbacks{
			EventConfirmOperation:         machine.actionConfirm,
			EventRevokeOperation:          machine.actionRevoke,
			eventExecuteOperationInternal: machine.actionExecute,
		},
	)

	if op.Executed {
		// Both states are declared, Restore cannot fail here.
		_ = machine.Restore(StateOperationExecuted)
	}

	return machine
}

func (m *OperationFSM) Operation() *types.Operation {
	m.payloadMu.RLock()
	defer m.payloadMu.RUnlock()
	return m.payload
}

func (m *OperationFSM) Confirm(args ...interface{}) error {
	return m.do(EventConfirmOperation, args...)
}

func (m *OperationFSM) Revoke(args ...interface{}) error {
	return m.do(EventRevokeOperation, args...)
}

// MarkExecuted moves the operation to its terminal state. It fails with
// ErrAlreadyExecuted the second time.
func (m *OperationFSM) MarkExecuted(args ...interface{}) error {
	_, err := m.DoInternal(eventExecuteOperationInternal, args...)
	return m.mapError(err)
}

func (m *OperationFSM) do(event fsm.Event, args ...interface{}) error {
	_, err := m.Do(event, args...)
	return m.mapError(err)
}

func (m *OperationFSM) mapError(err error) error {
	if errors.Is(err, fsm.ErrInvalidTransition) {
		return rtaerrors.ErrAlreadyExecuted.Newf("operation %d", m.Operation().ID)
	}
	return err
}
