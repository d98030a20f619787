package operation_fsm

import (
	"errors"

	"github.com/lidofinance/rta/fsm/fsm"
	"github.com/lidofinance/rta/fsm/types/requests"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
	"github.com/lidofinance/rta/pkg/utils"
)

func (m *OperationFSM) actionConfirm(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	request, err := confirmationRequest(args)
	if err != nil {
		return
	}

	if m.payload.HasConfirmed(request.Principal) {
		err = rtaerrors.ErrAlreadyConfirmed.Newf("operation %d by %s", m.payload.ID, request.Principal.Hex())
		return
	}

	m.payload.Confirmations = append(m.payload.Confirmations, request.Principal)
	response = len(m.payload.Confirmations)
	return
}

func (m *OperationFSM) actionRevoke(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	request, err := confirmationRequest(args)
	if err != nil {
		return
	}

	if !m.payload.HasConfirmed(request.Principal) {
		err = rtaerrors.ErrNotConfirmed.Newf("operation %d by %s", m.payload.ID, request.Principal.Hex())
		return
	}

	m.payload.Confirmations = utils.RemoveAddress(m.payload.Confirmations, request.Principal)
	response = len(m.payload.Confirmations)
	return
}

func (m *OperationFSM) actionExecute(inEvent fsm.Event, args ...interface{}) (outEvent fsm.Event, response interface{}, err error) {
	m.payloadMu.Lock()
	defer m.payloadMu.Unlock()

	if len(args) != 1 {
		err = errors.New("{arg0} required {OperationExecutedRequest}")
		return
	}

	request, ok := args[0].(requests.OperationExecutedRequest)
	if !ok {
		err = errors.New("cannot cast {arg0} to type {OperationExecutedRequest}")
		return
	}

	if err = request.Validate(); err != nil {
		return
	}

	executedAt := request.ExecutedAt
	m.payload.Executed = true
	m.payload.ExecutedAt = &executedAt
	m.payload.LastError = ""
	return
}

func confirmationRequest(args []interface{}) (*requests.OperationConfirmationRequest, error) {
	if len(args) != 1 {
		return nil, errors.New("{arg0} required {OperationConfirmationRequest}")
	}

	request, ok := args[0].(requests.OperationConfirmationRequest)
	if !ok {
		return nil, errors.New("cannot cast {arg0} to type {OperationConfirmationRequest}")
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	return &request, nil
}
