package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/fsm/state_machines/transfer_request_fsm"
	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/modules/state"
	ledgerRepo "github.com/lidofinance/rta/node/repositories/ledger"
	"github.com/lidofinance/rta/node/types"
	"github.com/lidofinance/rta/pkg/upgrade"
)

func (l *TransferRequestLedger) Mint(ctx context.Context, kv state.KVStore, caller common.Address, request requests.MintRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodMint); err != nil {
		return err
	}
	if err := validate(types.MethodMint, &request); err != nil {
		return err
	}

	balance, err := repo.GetBalance(request.To)
	if err != nil {
		return err
	}
	supply, err := repo.GetTotalSupply()
	if err != nil {
		return err
	}
	if err := repo.PutBalance(request.To, balance.Add(request.Amount)); err != nil {
		return err
	}
	if err := repo.PutTotalSupply(supply.Add(request.Amount)); err != nil {
		return err
	}

	l.logger.Info().Str("to", request.To.Hex()).Str("amount", request.Amount.String()).Msg("minted")
	return types.Emit(ctx, types.EventMinted, l.address, request)
}

func (l *TransferRequestLedger) Burn(ctx context.Context, kv state.KVStore, caller common.Address, request requests.BurnRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodBurn); err != nil {
		return err
	}
	if err := validate(types.MethodBurn, &request); err != nil {
		return err
	}

	balance, err := repo.GetBalance(request.From)
	if err != nil {
		return err
	}
	if balance.LessThan(request.Amount) {
		return insufficientBalance(request.From, balance, request.Amount)
	}
	supply, err := repo.GetTotalSupply()
	if err != nil {
		return err
	}
	if err := repo.PutBalance(request.From, balance.Sub(request.Amount)); err != nil {
		return err
	}
	if err := repo.PutTotalSupply(supply.Sub(request.Amount)); err != nil {
		return err
	}

	l.logger.Info().Str("from", request.From.Hex()).Str("amount", request.Amount.String()).Msg("burned")
	return types.Emit(ctx, types.EventBurned, l.address, request)
}

// TransferFrom moves tokens on behalf of a holder. Frozen holders cannot be
// debited this way.
func (l *TransferRequestLedger) TransferFrom(ctx context.Context, kv state.KVStore, caller common.Address, request requests.TransferFromRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodTransferFrom); err != nil {
		return err
	}
	if err := validate(types.MethodTransferFrom, &request); err != nil {
		return err
	}
	if err := l.checkNotFrozen(repo, request.From); err != nil {
		return err
	}
	if err := l.move(repo, request.From, request.To, request.Amount); err != nil {
		return err
	}

	return types.Emit(ctx, types.EventTransferred, l.address, request)
}

// SetFeeParameters replaces the fee and the accepted fee tokens wholesale.
func (l *TransferRequestLedger) SetFeeParameters(ctx context.Context, kv state.KVStore, caller common.Address, request requests.FeeParametersRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodSetFeeParameters); err != nil {
		return err
	}
	if err := validate(types.MethodSetFeeParameters, &request); err != nil {
		return err
	}

	params := &types.FeeParameters{
		Type:           types.FeeType(request.Type),
		Value:          request.Value,
		AcceptedTokens: request.AcceptedTokens,
	}
	if err := repo.PutFeeParameters(params); err != nil {
		return err
	}

	l.logger.Info().Str("type", request.Type).Str("value", request.Value.String()).Int("accepted_tokens", len(request.AcceptedTokens)).Msg("fee parameters set")
	return types.Emit(ctx, types.EventFeeParametersSet, l.address, params)
}

func (l *TransferRequestLedger) SetBrokerStatus(ctx context.Context, kv state.KVStore, caller common.Address, request requests.BrokerStatusRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodSetBrokerStatus); err != nil {
		return err
	}
	if err := validate(types.MethodSetBrokerStatus, &request); err != nil {
		return err
	}
	if err := repo.PutBroker(request.Broker, request.Approved); err != nil {
		return err
	}

	return types.Emit(ctx, types.EventBrokerStatusSet, l.address, request)
}

func (l *TransferRequestLedger) SetAccountFrozen(ctx context.Context, kv state.KVStore, caller common.Address, request requests.AccountFrozenRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodSetAccountFrozen); err != nil {
		return err
	}
	if err := validate(types.MethodSetAccountFrozen, &request); err != nil {
		return err
	}
	if err := repo.PutFrozen(request.Account, request.Frozen); err != nil {
		return err
	}

	l.logger.Info().Str("account", request.Account.Hex()).Bool("frozen", request.Frozen).Msg("account frozen flag set")
	return types.Emit(ctx, types.EventAccountFrozenSet, l.address, request)
}

// ProcessTransferRequest approves or rejects a pending request exactly once.
// Approval moves the tokens and collects the escrowed fee, rejection credits
// the fee back to the requester. Status and balances are written together.
func (l *TransferRequestLedger) ProcessTransferRequest(ctx context.Context, kv state.KVStore, caller common.Address, request requests.ProcessTransferRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodProcessTransferRequest); err != nil {
		return err
	}
	if err := validate(types.MethodProcessTransferRequest, &request); err != nil {
		return err
	}

	tr, err := repo.GetTransferRequestByID(request.RequestID)
	if err != nil {
		return err
	}

	machine, err := transfer_request_fsm.New(tr)
	if err != nil {
		return err
	}
	if err := machine.Finalize(request.Approve, requests.TransferRequestFinalizedRequest{FinalizedAt: types.BlockTime(ctx)}); err != nil {
		return err
	}

	locked, err := repo.GetLocked(tr.From)
	if err != nil {
		return err
	}
	if err := repo.PutLocked(tr.From, locked.Sub(tr.Amount)); err != nil {
		return err
	}

	if request.Approve {
		if err := l.checkNotFrozen(repo, tr.From); err != nil {
			return err
		}
		if err := l.move(repo, tr.From, tr.To, tr.Amount); err != nil {
			return err
		}
		collected, err := repo.GetCollectedFees(tr.FeeToken)
		if err != nil {
			return err
		}
		if err := repo.PutCollectedFees(tr.FeeToken, collected.Add(tr.FeeAmount)); err != nil {
			return err
		}
	} else {
		credit, err := repo.GetFeeCredit(tr.RequestedBy, tr.FeeToken)
		if err != nil {
			return err
		}
		if err := repo.PutFeeCredit(tr.RequestedBy, tr.FeeToken, credit.Add(tr.FeeAmount)); err != nil {
			return err
		}
	}

	if err := repo.PutTransferRequest(tr); err != nil {
		return err
	}

	l.logger.Info().Uint64("request_id", tr.ID).Str("status", string(tr.Status)).Msg("transfer request finalized")
	return types.Emit(ctx, types.EventTransferRequestProcessed, l.address, tr)
}

// ExecuteCourtOrder moves tokens regardless of the frozen flag of from.
func (l *TransferRequestLedger) ExecuteCourtOrder(ctx context.Context, kv state.KVStore, caller common.Address, request requests.CourtOrderRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodExecuteCourtOrder); err != nil {
		return err
	}
	if err := validate(types.MethodExecuteCourtOrder, &request); err != nil {
		return err
	}
	if err := l.move(repo, request.From, request.To, request.Amount); err != nil {
		return err
	}

	l.logger.Info().
		Str("from", request.From.Hex()).
		Str("to", request.To.Hex()).
		Str("amount", request.Amount.String()).
		Str("case_reference", request.CaseReference).
		Msg("court order executed")
	return types.Emit(ctx, types.EventCourtOrderExecuted, l.address, request)
}

// RecoverToken pays request.Amount of request.Token out of the ledger to
// request.To. A fee credit that To holds in Token, refunded on rejection, is
// settled first and the rest is taken from collected fees. The ledger keeps
// no custody of fee tokens: the token_recovered event is the payout order.
func (l *TransferRequestLedger) RecoverToken(ctx context.Context, kv state.KVStore, caller common.Address, request requests.RecoverTokenRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodRecoverToken); err != nil {
		return err
	}
	if err := validate(types.MethodRecoverToken, &request); err != nil {
		return err
	}

	credit, err := repo.GetFeeCredit(request.To, request.Token)
	if err != nil {
		return err
	}
	collected, err := repo.GetCollectedFees(request.Token)
	if err != nil {
		return err
	}
	if available := credit.Add(collected); available.LessThan(request.Amount) {
		return insufficientBalance(request.Token, available, request.Amount)
	}

	fromCredit := decimal.Min(credit, request.Amount)
	fromCollected := request.Amount.Sub(fromCredit)
	if err := repo.PutFeeCredit(request.To, request.Token, credit.Sub(fromCredit)); err != nil {
		return err
	}
	if err := repo.PutCollectedFees(request.Token, collected.Sub(fromCollected)); err != nil {
		return err
	}

	l.logger.Info().
		Str("token", request.Token.Hex()).
		Str("to", request.To.Hex()).
		Str("from_credit", fromCredit.String()).
		Str("from_collected", fromCollected.String()).
		Msg("token recovered")
	return types.Emit(ctx, types.EventTokenRecovered, l.address, map[string]interface{}{
		"token":          request.Token,
		"to":             request.To,
		"amount":         request.Amount,
		"from_credit":    fromCredit,
		"from_collected": fromCollected,
	})
}

// UpgradeTo records the implementation the ledger runs.
func (l *TransferRequestLedger) UpgradeTo(ctx context.Context, kv state.KVStore, caller common.Address, request requests.UpgradeRequest) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)
	if err := l.authorize(repo, caller, types.MethodUpgradeTo); err != nil {
		return err
	}
	if err := validate(types.MethodUpgradeTo, &request); err != nil {
		return err
	}

	impl := &upgrade.Implementation{
		Version:    request.Version,
		CodeHash:   request.CodeHash,
		UpgradedAt: types.BlockTime(ctx),
	}
	if err := repo.PutImplementation(impl); err != nil {
		return err
	}

	return types.Emit(ctx, types.EventUpgraded, l.address, impl)
}
