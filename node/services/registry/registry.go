package registry

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/fsm/state_machines/operation_fsm"
	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/modules/logger"
	"github.com/lidofinance/rta/node/modules/state"
	registryRepo "github.com/lidofinance/rta/node/repositories/registry"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
	"github.com/lidofinance/rta/pkg/upgrade"
)

const Topic = "registry"

// OperationRegistry gates privileged calls behind M-of-N signer
// confirmations. It is also a target of its own operations: signer set
// changes and upgrades are executed operations addressed to the registry.
//
// The registry keeps no state of its own besides the target table; every
// call works on the KV store it is given. Callers must serialize mutating
// calls.
type OperationRegistry struct {
	address  common.Address
	targets  map[common.Address]types.Target
	replacer upgrade.CodeReplacer
	logger   logger.Logger

	upgradeAuth upgrade.Authorization
	executing   atomic.Bool
}

var _ types.Target = (*OperationRegistry)(nil)

func NewOperationRegistry(address common.Address, l logger.Logger, replacer upgrade.CodeReplacer) *OperationRegistry {
	r := &OperationRegistry{
		address:  address,
		targets:  make(map[common.Address]types.Target),
		replacer: replacer,
		logger:   l.With("registry"),
	}
	r.targets[address] = r
	return r
}

// RegisterTarget makes t callable by executed operations.
func (r *OperationRegistry) RegisterTarget(t types.Target) {
	r.targets[t.Address()] = t
}

func (r *OperationRegistry) Address() common.Address {
	return r.address
}

// InitGenesis stores the initial signer set. Once a set is stored the call
// is a no-op.
func (r *OperationRegistry) InitGenesis(kv state.KVStore, request requests.GenesisRequest) error {
	repo := registryRepo.NewRegistryRepo(kv, Topic)

	set, err := repo.GetSignerSet()
	if err != nil {
		return err
	}
	if set != nil {
		return nil
	}

	if err := request.Validate(); err != nil {
		return rtaerrors.ErrInvalidInput.Newf("genesis: %v", err)
	}

	return repo.PutSignerSet(&types.SignerSet{
		Signers:            request.Signers,
		RequiredSignatures: request.RequiredSignatures,
	})
}

// Submit stores a new operation confirmed by the caller and evaluates it.
func (r *OperationRegistry) Submit(
	ctx context.Context,
	kv state.KVCacheWrap,
	caller common.Address,
	target common.Address,
	data []byte,
	value decimal.Decimal,
) (*types.EvaluationResult, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}

	repo := registryRepo.NewRegistryRepo(kv, Topic)
	set, err := r.activeSigner(repo, caller)
	if err != nil {
		return nil, err
	}

	t, ok := r.targets[target]
	if !ok {
		return nil, rtaerrors.ErrInvalidInput.Newf("unknown target %s", target.Hex())
	}

	ins, err := types.DecodeInstruction(data)
	if err != nil {
		return nil, rtaerrors.ErrInvalidInput.New(err.Error())
	}
	if !t.HasMethod(ins.Method) {
		return nil, rtaerrors.ErrUnknownMethod.Newf("%s is not a method of %s", ins.Method, target.Hex())
	}

	if value.IsNegative() {
		return nil, rtaerrors.ErrInvalidAmount.New("value cannot be negative")
	}

	id, err := repo.NextOperationID()
	if err != nil {
		return nil, err
	}

	op := &types.Operation{
		ID:          id,
		Target:      target,
		Data:        data,
		Value:       value,
		Creator:     caller,
		SubmittedAt: types.BlockTime(ctx),
	}

	machine := operation_fsm.New(op)
	if err := machine.Confirm(r.confirmation(ctx, caller)); err != nil {
		return nil, err
	}

	if err := repo.PutOperation(op); err != nil {
		return nil, err
	}
	if err := repo.AddPendingOperations(1); err != nil {
		return nil, err
	}

	if err := types.Emit(ctx, types.EventOperationSubmitted, r.address, map[string]interface{}{
		"operation_id": op.ID,
		"creator":      caller,
		"target":       target,
		"method":       ins.Method,
		"selector":     ins.Selector(),
	}); err != nil {
		return nil, err
	}

	r.logger.Info().
		Uint64("operation_id", op.ID).
		Str("creator", caller.Hex()).
		Str("target", target.Hex()).
		Str("method", ins.Method).
		Msg("operation submitted")

	return r.evaluate(ctx, kv, repo, machine, set)
}

// Confirm adds the caller's confirmation and evaluates the operation.
func (r *OperationRegistry) Confirm(ctx context.Context, kv state.KVCacheWrap, caller common.Address, id uint64) (*types.EvaluationResult, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}

	repo := registryRepo.NewRegistryRepo(kv, Topic)
	set, err := r.activeSigner(repo, caller)
	if err != nil {
		return nil, err
	}

	op, err := repo.GetOperationByID(id)
	if err != nil {
		return nil, err
	}

	machine := operation_fsm.New(op)
	if err := machine.Confirm(r.confirmation(ctx, caller)); err != nil {
		return nil, err
	}

	if err := repo.PutOperation(op); err != nil {
		return nil, err
	}

	if err := types.Emit(ctx, types.EventOperationConfirmed, r.address, map[string]interface{}{
		"operation_id": op.ID,
		"signer":       caller,
	}); err != nil {
		return nil, err
	}

	r.logger.Info().
		Uint64("operation_id", op.ID).
		Str("signer", caller.Hex()).
		Int("confirmations", len(op.Confirmations)).
		Msg("operation confirmed")

	return r.evaluate(ctx, kv, repo, machine, set)
}

// Revoke withdraws the caller's confirmation. It never executes anything.
func (r *OperationRegistry) Revoke(ctx context.Context, kv state.KVCacheWrap, caller common.Address, id uint64) (*types.Operation, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}

	repo := registryRepo.NewRegistryRepo(kv, Topic)
	if _, err := r.activeSigner(repo, caller); err != nil {
		return nil, err
	}

	op, err := repo.GetOperationByID(id)
	if err != nil {
		return nil, err
	}

	machine := operation_fsm.New(op)
	if err := machine.Revoke(r.confirmation(ctx, caller)); err != nil {
		return nil, err
	}

	if err := repo.PutOperation(op); err != nil {
		return nil, err
	}

	if err := types.Emit(ctx, types.EventConfirmationRevoked, r.address, map[string]interface{}{
		"operation_id": op.ID,
		"signer":       caller,
	}); err != nil {
		return nil, err
	}

	r.logger.Info().
		Uint64("operation_id", op.ID).
		Str("signer", caller.Hex()).
		Msg("confirmation revoked")

	return op, nil
}

// Execute evaluates a pending operation again. It is how an operation moves
// on after the signer set or the threshold changed, or after its target
// failed.
func (r *OperationRegistry) Execute(ctx context.Context, kv state.KVCacheWrap, caller common.Address, id uint64) (*types.EvaluationResult, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}

	repo := registryRepo.NewRegistryRepo(kv, Topic)
	set, err := r.activeSigner(repo, caller)
	if err != nil {
		return nil, err
	}

	op, err := repo.GetOperationByID(id)
	if err != nil {
		return nil, err
	}
	if op.Executed {
		return nil, rtaerrors.ErrAlreadyExecuted.Newf("operation %d", op.ID)
	}

	return r.evaluate(ctx, kv, repo, operation_fsm.New(op), set)
}

// evaluate recounts the confirmations of the operation against the signer
// set as it is now and runs the target when the threshold is met. A failing
// target leaves no trace besides LastError: its writes and events are
// dropped, the confirmations stay.
func (r *OperationRegistry) evaluate(
	ctx context.Context,
	kv state.KVCacheWrap,
	repo registryRepo.RegistryRepo,
	machine *operation_fsm.OperationFSM,
	set *types.SignerSet,
) (*types.EvaluationResult, error) {
	op := machine.Operation()
	active := types.ActiveConfirmations(op.Confirmations, set.Signers)

	result := &types.EvaluationResult{
		Operation:           op,
		ActiveConfirmations: active,
		RequiredSignatures:  set.RequiredSignatures,
	}

	if op.Executed || set.RequiredSignatures == 0 || uint64(active) < set.RequiredSignatures {
		return result, nil
	}

	if execErr := r.callTarget(ctx, kv, op); execErr != nil {
		op.LastError = execErr.Error()
		result.ExecutionError = op.LastError

		if err := repo.PutOperation(op); err != nil {
			return nil, err
		}

		if err := types.Emit(ctx, types.EventOperationExecutionFailed, r.address, map[string]interface{}{
			"operation_id": op.ID,
			"error":        op.LastError,
		}); err != nil {
			return nil, err
		}

		r.logger.Warn().
			Uint64("operation_id", op.ID).
			Str("error_class", rtaerrors.ClassOf(execErr).String()).
			Err(execErr).
			Msg("operation execution failed")

		return result, nil
	}

	if err := machine.MarkExecuted(requests.OperationExecutedRequest{ExecutedAt: types.BlockTime(ctx)}); err != nil {
		return nil, err
	}

	if err := repo.PutOperation(op); err != nil {
		return nil, err
	}
	if err := repo.AddPendingOperations(-1); err != nil {
		return nil, err
	}

	if err := types.Emit(ctx, types.EventOperationExecuted, r.address, map[string]interface{}{
		"operation_id": op.ID,
		"target":       op.Target,
	}); err != nil {
		return nil, err
	}

	r.logger.Info().
		Uint64("operation_id", op.ID).
		Int("active_confirmations", active).
		Uint64("required_signatures", set.RequiredSignatures).
		Msg("operation executed")

	result.Executed = true
	return result, nil
}

// callTarget runs the instruction of op in a nested cache wrap over kv.
func (r *OperationRegistry) callTarget(ctx context.Context, kv state.KVCacheWrap, op *types.Operation) error {
	target, ok := r.targets[op.Target]
	if !ok {
		return rtaerrors.ErrInvalidInput.Newf("unknown target %s", op.Target.Hex())
	}

	ins, err := types.DecodeInstruction(op.Data)
	if err != nil {
		return rtaerrors.ErrInvalidInput.New(err.Error())
	}

	cache := kv.CacheWrap()
	events := types.NewEventBuffer()

	err = func() error {
		r.executing.Store(true)
		defer r.executing.Store(false)
		return target.Call(types.WithEvents(ctx, events), cache, r.address, ins, op.Value)
	}()
	if err != nil {
		cache.Discard()
		return err
	}

	if err := cache.Write(); err != nil {
		return rtaerrors.Wrap(rtaerrors.ErrDatabase, err.Error())
	}

	types.EventsFrom(ctx).Merge(events)
	return nil
}

// enter rejects registry calls made from inside an executing target.
func (r *OperationRegistry) enter() error {
	if r.executing.Load() {
		return rtaerrors.ErrReentrantCall.New("an operation is executing")
	}
	return nil
}

func (r *OperationRegistry) activeSigner(repo registryRepo.RegistryRepo, caller common.Address) (*types.SignerSet, error) {
	set, err := r.signerSet(repo)
	if err != nil {
		return nil, err
	}
	if !set.Contains(caller) {
		return nil, rtaerrors.ErrNotASigner.New(caller.Hex())
	}
	return set, nil
}

func (r *OperationRegistry) signerSet(repo registryRepo.RegistryRepo) (*types.SignerSet, error) {
	set, err := repo.GetSignerSet()
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, rtaerrors.ErrInternal.New("registry genesis is not initialized")
	}
	return set, nil
}

func (r *OperationRegistry) confirmation(ctx context.Context, principal common.Address) requests.OperationConfirmationRequest {
	return requests.OperationConfirmationRequest{
		Principal: principal,
		CreatedAt: types.BlockTime(ctx),
	}
}
