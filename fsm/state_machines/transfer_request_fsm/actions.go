package transfer_request_fsm

import (
	"errors"

	"github.com/lidofinance/rta/fsm/fsm"
	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/types"
)

func (m *TransferRequestFSM) actionFinalize(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	if len(args) != 1 {
		err = errors.New("{arg0} required {TransferRequestFinalizedRequest}")
		return
	}

	request, ok := args[0].(requests.TransferRequestFinalizedRequest)
	if !ok {
		err = errors.New("cannot cast {arg0} to type {TransferRequestFinalizedRequest}")
		return
	}

	if err = request.Validate(); err != nil {
		return
	}

	m.payload.Status = types.StatusRejected
	if inEvent == EventApproveTransferRequest {
		m.payload.Status = types.StatusApproved
	}

	finalizedAt := request.FinalizedAt
	m.payload.FinalizedAt = &finalizedAt
	return
}
