package registry

import (
	"fmt"
	"strconv"

	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
	"github.com/lidofinance/rta/pkg/upgrade"
)

const (
	SignersKey        = "signers"
	OperationSeqKey   = "operation_seq"
	PendingCountKey   = "pending_count"
	OperationKey      = "operation"
	ImplementationKey = "implementation"
)

type RegistryRepo interface {
	GetSignerSet() (*types.SignerSet, error)
	PutSignerSet(set *types.SignerSet) error

	NextOperationID() (uint64, error)
	LastOperationID() (uint64, error)
	PutOperation(op *types.Operation) error
	GetOperationByID(id uint64) (*types.Operation, error)
	GetOperations() ([]*types.Operation, error)

	PendingOperations() (uint64, error)
	AddPendingOperations(delta int64) error

	GetImplementation() (*upgrade.Implementation, error)
	PutImplementation(impl *upgrade.Implementation) error
}

// BaseRegistryRepo keeps registry records under one topic prefix of a KV
// store. It is cheap to build and is built per call over the call's cache
// wrap.
type BaseRegistryRepo struct {
	state state.KVStore
	topic string
}

func NewRegistryRepo(kv state.KVStore, topic string) *BaseRegistryRepo {
	return &BaseRegistryRepo{
		state: kv,
		topic: topic,
	}
}

func (r *BaseRegistryRepo) key(parts ...string) string {
	key := r.topic
	for _, p := range parts {
		key = state.MakeCompositeKeyString(key, p)
	}
	return key
}

// GetSignerSet returns nil before genesis.
func (r *BaseRegistryRepo) GetSignerSet() (*types.SignerSet, error) {
	var set types.SignerSet
	ok, err := state.GetJSON(r.state, r.key(SignersKey), &set)
	if err != nil {
		return nil, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to get signer set: %v", err))
	}
	if !ok {
		return nil, nil
	}
	return &set, nil
}

func (r *BaseRegistryRepo) PutSignerSet(set *types.SignerSet) error {
	if err := state.SetJSON(r.state, r.key(SignersKey), set); err != nil {
		return rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to put signer set: %v", err))
	}
	return nil
}

// NextOperationID reserves the next operation id. Ids start at 1 and are
// never reused.
func (r *BaseRegistryRepo) NextOperationID() (uint64, error) {
	last, err := r.LastOperationID()
	if err != nil {
		return 0, err
	}
	next := last + 1
	if err := r.state.Set(r.key(OperationSeqKey), []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to put operation seq: %v", err))
	}
	return next, nil
}

func (r *BaseRegistryRepo) LastOperationID() (uint64, error) {
	bz, err := r.state.Get(r.key(OperationSeqKey))
	if err != nil {
		return 0, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to get operation seq: %v", err))
	}
	if bz == nil {
		return 0, nil
	}
	seq, err := strconv.ParseUint(string(bz), 10, 64)
	if err != nil {
		return 0, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("corrupted operation seq %q", bz))
	}
	return seq, nil
}

func (r *BaseRegistryRepo) PutOperation(op *types.Operation) error {
	if err := state.SetJSON(r.state, r.key(OperationKey, strconv.FormatUint(op.ID, 10)), op); err != nil {
		return rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to put operation %d: %v", op.ID, err))
	}
	return nil
}

func (r *BaseRegistryRepo) GetOperationByID(id uint64) (*types.Operation, error) {
	var op types.Operation
	ok, err := state.GetJSON(r.state, r.key(OperationKey, strconv.FormatUint(id, 10)), &op)
	if err != nil {
		return nil, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to get operation %d: %v", id, err))
	}
	if !ok {
		return nil, rtaerrors.ErrUnknownOperation.Newf("operation %d", id)
	}
	return &op, nil
}

// GetOperations returns every operation in id order.
func (r *BaseRegistryRepo) GetOperations() ([]*types.Operation, error) {
	last, err := r.LastOperationID()
	if err != nil {
		return nil, err
	}
	operations := make([]*types.Operation, 0, last)
	for id := uint64(1); id <= last; id++ {
		op, err := r.GetOperationByID(id)
		if err != nil {
			return nil, err
		}
		operations = append(operations, op)
	}
	return operations, nil
}

// PendingOperations returns the number of operations that are not executed.
func (r *BaseRegistryRepo) PendingOperations() (uint64, error) {
	bz, err := r.state.Get(r.key(PendingCountKey))
	if err != nil {
		return 0, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to get pending count: %v", err))
	}
	if bz == nil {
		return 0, nil
	}
	count, err := strconv.ParseUint(string(bz), 10, 64)
	if err != nil {
		return 0, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("corrupted pending count %q", bz))
	}
	return count, nil
}

// AddPendingOperations moves the pending counter by delta. It is called with
// +1 on submission and -1 on execution.
func (r *BaseRegistryRepo) AddPendingOperations(delta int64) error {
	count, err := r.PendingOperations()
	if err != nil {
		return err
	}
	if delta < 0 && uint64(-delta) > count {
		return rtaerrors.ErrDatabase.Newf("pending count %d cannot drop by %d", count, -delta)
	}
	count = uint64(int64(count) + delta)
	if err := r.state.Set(r.key(PendingCountKey), []byte(strconv.FormatUint(count, 10))); err != nil {
		return rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to put pending count: %v", err))
	}
	return nil
}

// GetImplementation returns nil while the genesis code is running.
func (r *BaseRegistryRepo) GetImplementation() (*upgrade.Implementation, error) {
	var impl upgrade.Implementation
	ok, err := state.GetJSON(r.state, r.key(ImplementationKey), &impl)
	if err != nil {
		return nil, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to get implementation: %v", err))
	}
	if !ok {
		return nil, nil
	}
	return &impl, nil
}

func (r *BaseRegistryRepo) PutImplementation(impl *upgrade.Implementation) error {
	if err := state.SetJSON(r.state, r.key(ImplementationKey), impl); err != nil {
		return rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to put implementation: %v", err))
	}
	return nil
}
