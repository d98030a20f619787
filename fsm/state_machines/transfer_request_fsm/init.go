package transfer_request_fsm

import (
	"errors"
	"sync"

	"github.com/lidofinance/rta/fsm/fsm"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

const (
	FsmName = "transfer_request_fsm"

	StateRequested = fsm.State(types.StatusRequested)
	StateApproved  = fsm.State(types.StatusApproved)
	StateRejected  = fsm.State(types.StatusRejected)

	EventApproveTransferRequest = fsm.Event("event_transfer_request_approve")
	EventRejectTransferRequest  = fsm.Event("event_transfer_request_reject")
)

type TransferRequestFSM struct {
	*fsm.FSM
	payload   *types.TransferRequest
	payloadMu sync.RWMutex
}

func New(request *types.TransferRequest) (*TransferRequestFSM, error) {
	machine := &TransferRequestFSM{payload: request}

	machine.FSM = fsm.MustNewFSM(
		FsmName,
		StateRequested,
		[]fsm.EventDesc{
			{Name: EventApproveTransferRequest, SrcState: []fsm.State{StateRequested}, DstState: StateApproved},
			{Name: EventRejectTransferRequest, SrcState: []fsm.State{StateRequested}, DstState: StateRejected},
		},
		fsm.Callbacks{
			EventApproveTransferRequest: machine.actionFinalize,
			EventRejectTransferRequest:  machine.actionFinalize,
		},
	)

	if err := machine.Restore(fsm.State(request.Status)); err != nil {
		return nil, err
	}

	return machine, nil
}

func (m *TransferRequestFSM) TransferRequest() *types.TransferRequest {
	m.payloadMu.RLock()
	defer m.payloadMu.RUnlock()
	return m.payload
}

// Finalize approves or rejects the request. Every call after the first one
// fails with ErrAlreadyFinalized.
func (m *TransferRequestFSM) Finalize(approve bool, args ...interface{}) error {
	event := EventRejectTransferRequest
	if approve {
		event = EventApproveTransferRequest
	}

	if _, err := m.Do(event, args...); err != nil {
		if errors.Is(err, fsm.ErrInvalidTransition) {
			return rtaerrors.ErrAlreadyFinalized.Newf("transfer request %d is %s", m.TransferRequest().ID, m.State())
		}
		return err
	}
	return nil
}
