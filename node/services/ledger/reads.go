package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/node/modules/state"
	ledgerRepo "github.com/lidofinance/rta/node/repositories/ledger"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

func (l *TransferRequestLedger) BalanceOf(kv state.KVStore, account common.Address) (decimal.Decimal, error) {
	return ledgerRepo.NewLedgerRepo(kv, Topic).GetBalance(account)
}

func (l *TransferRequestLedger) TotalSupply(kv state.KVStore) (decimal.Decimal, error) {
	return ledgerRepo.NewLedgerRepo(kv, Topic).GetTotalSupply()
}

func (l *TransferRequestLedger) IsFrozen(kv state.KVStore, account common.Address) (bool, error) {
	return ledgerRepo.NewLedgerRepo(kv, Topic).IsFrozen(account)
}

func (l *TransferRequestLedger) IsBroker(kv state.KVStore, account common.Address) (bool, error) {
	return ledgerRepo.NewLedgerRepo(kv, Topic).IsBroker(account)
}

func (l *TransferRequestLedger) FeeParameters(kv state.KVStore) (*types.FeeParameters, error) {
	return ledgerRepo.NewLedgerRepo(kv, Topic).GetFeeParameters()
}

func (l *TransferRequestLedger) GetTransferRequest(kv state.KVStore, id uint64) (*types.TransferRequest, error) {
	return ledgerRepo.NewLedgerRepo(kv, Topic).GetTransferRequestByID(id)
}

// ListTransferRequests returns requests in id order. An empty status matches
// every request.
func (l *TransferRequestLedger) ListTransferRequests(kv state.KVStore, status types.Status) ([]*types.TransferRequest, error) {
	all, err := ledgerRepo.NewLedgerRepo(kv, Topic).GetTransferRequests()
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}

	result := make([]*types.TransferRequest, 0, len(all))
	for _, tr := range all {
		if tr.Status == status {
			result = append(result, tr)
		}
	}
	return result, nil
}

func (l *TransferRequestLedger) CollectedFees(kv state.KVStore, token common.Address) (decimal.Decimal, error) {
	return ledgerRepo.NewLedgerRepo(kv, Topic).GetCollectedFees(token)
}

func (l *TransferRequestLedger) FeeCredit(kv state.KVStore, account, token common.Address) (decimal.Decimal, error) {
	return ledgerRepo.NewLedgerRepo(kv, Topic).GetFeeCredit(account, token)
}

func (l *TransferRequestLedger) TransferAgent(kv state.KVStore) (common.Address, error) {
	agent, err := ledgerRepo.NewLedgerRepo(kv, Topic).GetTransferAgent()
	if err != nil {
		return common.Address{}, err
	}
	if agent == nil {
		return common.Address{}, rtaerrors.ErrInternal.New("ledger genesis is not initialized")
	}
	return *agent, nil
}

func (l *TransferRequestLedger) Account(kv state.KVStore, account common.Address) (*types.Account, error) {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)

	balance, err := repo.GetBalance(account)
	if err != nil {
		return nil, err
	}
	locked, err := repo.GetLocked(account)
	if err != nil {
		return nil, err
	}
	frozen, err := repo.IsFrozen(account)
	if err != nil {
		return nil, err
	}
	broker, err := repo.IsBroker(account)
	if err != nil {
		return nil, err
	}

	return &types.Account{
		Address: account,
		Balance: balance,
		Locked:  locked,
		Frozen:  frozen,
		Broker:  broker,
	}, nil
}
