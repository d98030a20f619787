package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/lidofinance/rta/node/modules/state"
	registryRepo "github.com/lidofinance/rta/node/repositories/registry"
	"github.com/lidofinance/rta/node/types"
	"github.com/lidofinance/rta/pkg/upgrade"
)

func (r *OperationRegistry) GetOperation(kv state.KVStore, id uint64) (*types.Operation, error) {
	return registryRepo.NewRegistryRepo(kv, Topic).GetOperationByID(id)
}

func (r *OperationRegistry) HasConfirmed(kv state.KVStore, id uint64, principal common.Address) (bool, error) {
	op, err := r.GetOperation(kv, id)
	if err != nil {
		return false, err
	}
	return op.HasConfirmed(principal), nil
}

// ListOperations returns operations in id order, only pending ones when
// pendingOnly is set.
func (r *OperationRegistry) ListOperations(kv state.KVStore, pendingOnly bool) ([]*types.Operation, error) {
	operations, err := registryRepo.NewRegistryRepo(kv, Topic).GetOperations()
	if err != nil {
		return nil, err
	}
	if !pendingOnly {
		return operations, nil
	}

	pending := make([]*types.Operation, 0, len(operations))
	for _, op := range operations {
		if !op.Executed {
			pending = append(pending, op)
		}
	}
	return pending, nil
}

// PendingOperations returns the number of operations that are not executed
// without reading them.
func (r *OperationRegistry) PendingOperations(kv state.KVStore) (uint64, error) {
	return registryRepo.NewRegistryRepo(kv, Topic).PendingOperations()
}

func (r *OperationRegistry) SignerSet(kv state.KVStore) (*types.SignerSet, error) {
	return r.signerSet(registryRepo.NewRegistryRepo(kv, Topic))
}

// ActiveConfirmations counts the confirmations of operation id that the
// current signer set honours.
func (r *OperationRegistry) ActiveConfirmations(kv state.KVStore, id uint64) (int, error) {
	repo := registryRepo.NewRegistryRepo(kv, Topic)
	set, err := r.signerSet(repo)
	if err != nil {
		return 0, err
	}
	op, err := repo.GetOperationByID(id)
	if err != nil {
		return 0, err
	}
	return types.ActiveConfirmations(op.Confirmations, set.Signers), nil
}

// Implementation returns nil while the genesis implementation runs.
func (r *OperationRegistry) Implementation(kv state.KVStore) (*upgrade.Implementation, error) {
	return registryRepo.NewRegistryRepo(kv, Topic).GetImplementation()
}
