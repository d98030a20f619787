package transfer_request_fsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

var finalized = requests.TransferRequestFinalizedRequest{FinalizedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}

func TestTransferRequestFSM_Approve(t *testing.T) {
	req := require.New(t)

	request := &types.TransferRequest{ID: 1, Status: types.StatusRequested}
	machine, err := New(request)
	req.NoError(err)

	req.NoError(machine.Finalize(true, finalized))
	req.Equal(types.StatusApproved, request.Status)
	req.Equal(finalized.FinalizedAt, *request.FinalizedAt)

	err = machine.Finalize(false, finalized)
	req.True(rtaerrors.ErrAlreadyFinalized.Is(err))
	req.Equal(types.StatusApproved, request.Status)
}

func TestTransferRequestFSM_RejectRestored(t *testing.T) {
	req := require.New(t)

	request := &types.TransferRequest{ID: 2, Status: types.StatusRejected}
	machine, err := New(request)
	req.NoError(err)
	req.Equal(StateRejected, machine.State())

	err = machine.Finalize(true, finalized)
	req.True(rtaerrors.ErrAlreadyFinalized.Is(err))
	req.Equal(types.StatusRejected, request.Status)
	req.Nil(request.FinalizedAt)
}

func TestTransferRequestFSM_Reject(t *testing.T) {
	req := require.New(t)

	request := &types.TransferRequest{ID: 3, Status: types.StatusRequested}
	machine, err := New(request)
	req.NoError(err)

	req.Error(machine.Finalize(false))
	req.Equal(types.StatusRequested, request.Status)

	req.NoError(machine.Finalize(false, finalized))
	req.Equal(types.StatusRejected, request.Status)
}

func TestTransferRequestFSM_UnknownStatus(t *testing.T) {
	_, err := New(&types.TransferRequest{ID: 4, Status: "cancelled"})
	require.Error(t, err)
}
