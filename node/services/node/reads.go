package node

import (
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/node/api/dto"
	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
	"github.com/lidofinance/rta/pkg/upgrade"
)

func (s *BaseNodeService) GetOperation(dto *dto.OperationIdDTO) (op *types.Operation, err error) {
	err = s.read(func(kv state.KVStore) error {
		op, err = s.registry.GetOperation(kv, dto.OperationID)
		return err
	})
	return
}

func (s *BaseNodeService) GetOperations(dto *dto.OperationsDTO) (ops []*types.Operation, err error) {
	err = s.read(func(kv state.KVStore) error {
		ops, err = s.registry.ListOperations(kv, dto.Pending)
		return err
	})
	return
}

func (s *BaseNodeService) HasConfirmed(dto *dto.HasConfirmedDTO) (confirmed bool, err error) {
	principal, err := parsePrincipal("principal", dto.Principal)
	if err != nil {
		return false, err
	}
	err = s.read(func(kv state.KVStore) error {
		confirmed, err = s.registry.HasConfirmed(kv, dto.OperationID, principal)
		return err
	})
	return
}

func (s *BaseNodeService) GetSigners() (set *types.SignerSet, err error) {
	err = s.read(func(kv state.KVStore) error {
		set, err = s.registry.SignerSet(kv)
		return err
	})
	return
}

func (s *BaseNodeService) GetImplementation() (impl *upgrade.Implementation, err error) {
	err = s.read(func(kv state.KVStore) error {
		impl, err = s.registry.Implementation(kv)
		return err
	})
	return
}

func (s *BaseNodeService) GetTransferRequest(dto *dto.TransferRequestIdDTO) (tr *types.TransferRequest, err error) {
	err = s.read(func(kv state.KVStore) error {
		tr, err = s.ledger.GetTransferRequest(kv, dto.RequestID)
		return err
	})
	return
}

func (s *BaseNodeService) GetTransferRequests(dto *dto.TransferRequestsDTO) (trs []*types.TransferRequest, err error) {
	status := types.Status(dto.Status)
	switch status {
	case "", types.StatusRequested, types.StatusApproved, types.StatusRejected:
	default:
		return nil, rtaerrors.ErrInvalidInput.Newf("unknown status %q", dto.Status)
	}

	err = s.read(func(kv state.KVStore) error {
		trs, err = s.ledger.ListTransferRequests(kv, status)
		return err
	})
	return
}

func (s *BaseNodeService) GetAccount(dto *dto.AccountDTO) (account *types.Account, err error) {
	address, err := parsePrincipal("address", dto.Address)
	if err != nil {
		return nil, err
	}
	err = s.read(func(kv state.KVStore) error {
		account, err = s.ledger.Account(kv, address)
		return err
	})
	return
}

func (s *BaseNodeService) GetFeeParameters() (params *types.FeeParameters, err error) {
	err = s.read(func(kv state.KVStore) error {
		params, err = s.ledger.FeeParameters(kv)
		return err
	})
	return
}

func (s *BaseNodeService) GetTotalSupply() (supply decimal.Decimal, err error) {
	err = s.read(func(kv state.KVStore) error {
		supply, err = s.ledger.TotalSupply(kv)
		return err
	})
	return
}
