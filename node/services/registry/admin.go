package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/fsm/config"
	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/modules/state"
	registryRepo "github.com/lidofinance/rta/node/repositories/registry"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
	"github.com/lidofinance/rta/pkg/upgrade"
	"github.com/lidofinance/rta/pkg/utils"
)

var adminMethods = map[string]bool{
	types.MethodAddSigner:                true,
	types.MethodRemoveSigner:             true,
	types.MethodUpdateRequiredSignatures: true,
	types.MethodUpgradeTo:                true,
}

func (r *OperationRegistry) HasMethod(method string) bool {
	return adminMethods[method]
}

// Call runs a self-administration instruction. Only the registry itself,
// i.e. an executed operation, may call it.
func (r *OperationRegistry) Call(ctx context.Context, kv state.KVStore, caller common.Address, ins *types.Instruction, _ decimal.Decimal) error {
	if caller != r.address {
		return rtaerrors.ErrUnauthorized.Newf("%s is callable only through an executed operation", ins.Method)
	}

	repo := registryRepo.NewRegistryRepo(kv, Topic)

	switch ins.Method {
	case types.MethodAddSigner:
		var request requests.SignerRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return r.addSigner(ctx, repo, request.Signer)
	case types.MethodRemoveSigner:
		var request requests.SignerRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return r.removeSigner(ctx, repo, request.Signer)
	case types.MethodUpdateRequiredSignatures:
		var request requests.ThresholdRequest
		if err := ins.DecodeArgs(&request); err != nil {
			return rtaerrors.ErrInvalidInput.New(err.Error())
		}
		return r.updateRequiredSignatures(ctx, repo, request.RequiredSignatures)
	case types.MethodUpgradeTo:
		var request requests.UpgradeRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return r.upgradeTo(ctx, kv, request)
	default:
		return rtaerrors.ErrUnknownMethod.New(ins.Method)
	}
}

type validatable interface {
	Validate() error
}

func decodeArgs(ins *types.Instruction, dst validatable) error {
	if err := ins.DecodeArgs(dst); err != nil {
		return rtaerrors.ErrInvalidInput.New(err.Error())
	}
	if err := dst.Validate(); err != nil {
		return rtaerrors.ErrInvalidInput.Newf("%s: %v", ins.Method, err)
	}
	return nil
}

func (r *OperationRegistry) addSigner(ctx context.Context, repo registryRepo.RegistryRepo, signer common.Address) error {
	set, err := r.signerSet(repo)
	if err != nil {
		return err
	}

	if set.Contains(signer) {
		return rtaerrors.ErrDuplicateSigner.New(signer.Hex())
	}
	if len(set.Signers) >= config.SignersMaxCount {
		return rtaerrors.ErrInvalidInput.Newf("signer set is full, maximum is %d", config.SignersMaxCount)
	}

	set.Signers = append(set.Signers, signer)
	if err := repo.PutSignerSet(set); err != nil {
		return err
	}

	r.logger.Info().Str("signer", signer.Hex()).Int("signers", len(set.Signers)).Msg("signer added")

	return types.Emit(ctx, types.EventSignerAdded, r.address, map[string]interface{}{
		"signer": signer,
	})
}

// removeSigner leaves the threshold as it is even when the remaining signers
// can no longer reach it. Such a registry is blocked until
// updateRequiredSignatures lowers the threshold.
func (r *OperationRegistry) removeSigner(ctx context.Context, repo registryRepo.RegistryRepo, signer common.Address) error {
	set, err := r.signerSet(repo)
	if err != nil {
		return err
	}

	if !set.Contains(signer) {
		return rtaerrors.ErrUnknownSigner.New(signer.Hex())
	}

	set.Signers = utils.RemoveAddress(set.Signers, signer)
	if err := repo.PutSignerSet(set); err != nil {
		return err
	}

	r.logger.Info().Str("signer", signer.Hex()).Int("signers", len(set.Signers)).Msg("signer removed")
	if !set.Satisfiable() {
		r.logger.Warn().
			Int("signers", len(set.Signers)).
			Uint64("required_signatures", set.RequiredSignatures).
			Msg("required signatures exceed the signer count, no operation can execute until the threshold is lowered")
	}

	return types.Emit(ctx, types.EventSignerRemoved, r.address, map[string]interface{}{
		"signer": signer,
	})
}

func (r *OperationRegistry) updateRequiredSignatures(ctx context.Context, repo registryRepo.RegistryRepo, required uint64) error {
	set, err := r.signerSet(repo)
	if err != nil {
		return err
	}

	if required < 1 || required > uint64(len(set.Signers)) {
		return rtaerrors.ErrInvalidThreshold.Newf("%d is out of [1, %d]", required, len(set.Signers))
	}

	previous := set.RequiredSignatures
	set.RequiredSignatures = required
	if err := repo.PutSignerSet(set); err != nil {
		return err
	}

	r.logger.Info().Uint64("from", previous).Uint64("to", required).Msg("required signatures changed")

	return types.Emit(ctx, types.EventRequiredSignaturesChange, r.address, map[string]interface{}{
		"from": previous,
		"to":   required,
	})
}

// upgradeTo grants the upgrade capability for exactly one ReplaceCode call.
// The grant does not outlive this call, whatever ReplaceCode returns.
func (r *OperationRegistry) upgradeTo(ctx context.Context, kv state.KVStore, request requests.UpgradeRequest) error {
	r.upgradeAuth.Grant()
	defer r.upgradeAuth.Clear()

	return r.ReplaceCode(ctx, kv, upgrade.Implementation{
		Version:    request.Version,
		CodeHash:   request.CodeHash,
		UpgradedAt: types.BlockTime(ctx),
	})
}

// ReplaceCode records impl as the running implementation. It fails with
// ErrUpgradeNotAuthorized unless called from an executed upgradeTo
// operation.
func (r *OperationRegistry) ReplaceCode(ctx context.Context, kv state.KVStore, impl upgrade.Implementation) error {
	if err := r.upgradeAuth.Consume(); err != nil {
		return err
	}

	repo := registryRepo.NewRegistryRepo(kv, Topic)
	if err := repo.PutImplementation(&impl); err != nil {
		return err
	}

	if r.replacer != nil {
		if err := r.replacer(impl); err != nil {
			return rtaerrors.Wrap(rtaerrors.ErrInternal, "code replacement: "+err.Error())
		}
	}

	r.logger.Info().Str("version", impl.Version).Str("code_hash", impl.CodeHash.Hex()).Msg("registry upgraded")

	return types.Emit(ctx, types.EventUpgraded, r.address, impl)
}
