package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/rta/fsm/config"
	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/modules/state"
	ledgerRepo "github.com/lidofinance/rta/node/repositories/ledger"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

// RequestTransferWithFee files a transfer for the agent to approve. The
// amount is locked against further requests from the same holder and the fee
// is held until the request is processed. No tokens move here.
func (l *TransferRequestLedger) RequestTransferWithFee(ctx context.Context, kv state.KVStore, caller common.Address, request requests.TransferWithFeeRequest) (*types.TransferRequest, error) {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)

	if !request.Amount.IsPositive() {
		return nil, rtaerrors.ErrInvalidAmount.Newf("{Amount} must be positive, got %s", request.Amount)
	}
	if err := request.Validate(); err != nil {
		return nil, rtaerrors.ErrInvalidInput.New(err.Error())
	}

	if caller != request.From {
		broker, err := repo.IsBroker(caller)
		if err != nil {
			return nil, err
		}
		if !broker {
			return nil, rtaerrors.ErrUnauthorized.Newf("%s is neither the holder nor an approved broker", caller.Hex())
		}
	}

	if err := l.checkNotFrozen(repo, request.From); err != nil {
		return nil, err
	}

	balance, err := repo.GetBalance(request.From)
	if err != nil {
		return nil, err
	}
	locked, err := repo.GetLocked(request.From)
	if err != nil {
		return nil, err
	}
	if available := balance.Sub(locked); available.LessThan(request.Amount) {
		return nil, insufficientBalance(request.From, available, request.Amount)
	}

	params, err := repo.GetFeeParameters()
	if err != nil {
		return nil, err
	}
	if !params.Accepts(request.FeeToken) {
		return nil, rtaerrors.ErrFeeTokenNotAccepted.New(request.FeeToken.Hex())
	}

	if request.FeeToken == types.NativeFeeToken {
		if !request.Value.Equal(request.FeeAmount) {
			return nil, rtaerrors.ErrFeeValueMismatch.Newf("attached value %s, fee %s", request.Value, request.FeeAmount)
		}
	} else if !request.Value.IsZero() {
		return nil, rtaerrors.ErrFeeValueMismatch.Newf("value %s attached to a token fee", request.Value)
	}

	if required := params.RequiredFee(request.Amount, config.BasisPointsDenominator); request.FeeAmount.LessThan(required) {
		return nil, rtaerrors.ErrInsufficientFee.Newf("fee %s, required %s", request.FeeAmount, required)
	}

	id, err := repo.NextRequestID()
	if err != nil {
		return nil, err
	}

	tr := &types.TransferRequest{
		ID:          id,
		From:        request.From,
		To:          request.To,
		Amount:      request.Amount,
		FeeToken:    request.FeeToken,
		FeeAmount:   request.FeeAmount,
		Status:      types.StatusRequested,
		RequestedBy: caller,
		RequestedAt: types.BlockTime(ctx),
	}
	if err := repo.PutTransferRequest(tr); err != nil {
		return nil, err
	}
	if err := repo.PutLocked(request.From, locked.Add(request.Amount)); err != nil {
		return nil, err
	}

	l.logger.Info().
		Uint64("request_id", tr.ID).
		Str("from", tr.From.Hex()).
		Str("to", tr.To.Hex()).
		Str("amount", tr.Amount.String()).
		Msg("transfer requested")

	if err := types.Emit(ctx, types.EventTransferRequested, l.address, tr); err != nil {
		return nil, err
	}
	return tr, nil
}
