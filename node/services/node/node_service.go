package node

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/api/dto"
	"github.com/lidofinance/rta/node/modules/logger"
	"github.com/lidofinance/rta/node/modules/metrics"
	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/node/services"
	"github.com/lidofinance/rta/node/services/ledger"
	"github.com/lidofinance/rta/node/services/registry"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
	"github.com/lidofinance/rta/pkg/upgrade"
	"github.com/lidofinance/rta/pkg/utils"
	"github.com/lidofinance/rta/storage"
)

type NodeService interface {
	GetLogger() logger.Logger
	GetUsername() string

	SubmitOperation(dto *dto.SubmitOperationDTO) (*types.EvaluationResult, error)
	ConfirmOperation(dto *dto.OperationIdDTO) (*types.EvaluationResult, error)
	RevokeConfirmation(dto *dto.OperationIdDTO) (*types.Operation, error)
	ExecuteOperation(dto *dto.OperationIdDTO) (*types.EvaluationResult, error)
	ReplaceCode(dto *dto.ReplaceCodeDTO) error

	RequestTransfer(dto *dto.TransferRequestDTO) (*types.TransferRequest, error)
	AgentCall(dto *dto.AgentCallDTO) error

	GetOperation(dto *dto.OperationIdDTO) (*types.Operation, error)
	GetOperations(dto *dto.OperationsDTO) ([]*types.Operation, error)
	HasConfirmed(dto *dto.HasConfirmedDTO) (bool, error)
	GetSigners() (*types.SignerSet, error)
	GetImplementation() (*upgrade.Implementation, error)

	GetTransferRequest(dto *dto.TransferRequestIdDTO) (*types.TransferRequest, error)
	GetTransferRequests(dto *dto.TransferRequestsDTO) ([]*types.TransferRequest, error)
	GetAccount(dto *dto.AccountDTO) (*types.Account, error)
	GetFeeParameters() (*types.FeeParameters, error)
	GetTotalSupply() (decimal.Decimal, error)
}

var _ NodeService = (*BaseNodeService)(nil)

// BaseNodeService runs every call of the node in one serialization window:
// the embedded mutex is held from the first read to the commit and the
// publication of the call's events.
type BaseNodeService struct {
	sync.Mutex
	ctx      context.Context
	userName string
	state    state.State
	storage  storage.Storage
	Logger   logger.Logger
	registry *registry.OperationRegistry
	ledger   *ledger.TransferRequestLedger
	now      func() time.Time
}

// NewNode builds the node and applies the genesis. Genesis is a no-op on a
// state that already has one, except that the ledger refuses a different
// transfer agent.
func NewNode(ctx context.Context, username string, sp *services.ServiceProvider) (*BaseNodeService, error) {
	s := &BaseNodeService{
		ctx:      ctx,
		userName: username,
		state:    sp.GetState(),
		storage:  sp.GetStorage(),
		Logger:   sp.GetLogger().With("node"),
		registry: sp.GetRegistry(),
		ledger:   sp.GetLedger(),
		now:      time.Now,
	}

	genesis := sp.GetGenesis()
	err := s.call("genesis", func(_ context.Context, kv state.KVCacheWrap) error {
		if err := s.registry.InitGenesis(kv, genesis.Registry); err != nil {
			return err
		}
		return s.ledger.InitGenesis(kv, genesis.TransferAgent, genesis.FeeParameters)
	})
	if err != nil {
		return nil, rtaerrors.Wrap(err, "failed to apply genesis")
	}

	s.Logger.Info().
		Str("registry", s.registry.Address().Hex()).
		Str("ledger", s.ledger.Address().Hex()).
		Str("transfer_agent", genesis.TransferAgent.Hex()).
		Msg("node initialized")

	return s, nil
}

func (s *BaseNodeService) GetLogger() logger.Logger {
	return s.Logger
}

func (s *BaseNodeService) GetUsername() string {
	return s.userName
}

// call runs fn against a cache wrap of the state. The wrap is written only
// when fn succeeds, so a failed call leaves no trace. Events are published
// after the write.
func (s *BaseNodeService) call(method string, fn func(ctx context.Context, kv state.KVCacheWrap) error) error {
	s.Lock()
	defer s.Unlock()

	started := time.Now()
	buf := types.NewEventBuffer()
	ctx := types.WithBlockTime(types.WithEvents(s.ctx, buf), s.now())

	kv := s.state.CacheWrap()
	if err := fn(ctx, kv); err != nil {
		kv.Discard()
		metrics.RecordCall(method, rtaerrors.ClassOf(err).String(), time.Since(started))
		s.Logger.Debug().Err(err).Str("method", method).Msg("call rejected")
		return err
	}
	if err := kv.Write(); err != nil {
		metrics.RecordCall(method, rtaerrors.ClassInternal.String(), time.Since(started))
		s.Logger.Error().Err(err).Str("method", method).Msg("failed to commit state")
		return rtaerrors.ErrDatabase.Newf("commit %s: %v", method, err)
	}

	s.publish(buf.Events())
	s.updatePendingOperations()
	metrics.RecordCall(method, "ok", time.Since(started))
	return nil
}

// read runs fn under the same lock as mutating calls.
func (s *BaseNodeService) read(fn func(kv state.KVStore) error) error {
	s.Lock()
	defer s.Unlock()
	return fn(s.state)
}

func (s *BaseNodeService) publish(events []types.Event) {
	if s.storage == nil || len(events) == 0 {
		return
	}

	messages := make([]storage.Message, 0, len(events))
	for _, e := range events {
		messages = append(messages, storage.Message{
			Event:      e.Name,
			Data:       e.Data,
			SenderAddr: e.Emitter.Hex(),
			CreatedAt:  e.Time,
		})
	}

	if err := s.storage.Send(messages...); err != nil {
		metrics.RecordJournalFailure()
		s.Logger.Error().Err(err).Int("events", len(messages)).Msg("failed to publish events, state is committed")
		return
	}
	for _, m := range messages {
		metrics.RecordEvent(m.Event)
	}
}

func (s *BaseNodeService) updatePendingOperations() {
	pending, err := s.registry.PendingOperations(s.state)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("failed to count pending operations")
		return
	}
	metrics.SetPendingOperations(int(pending))
}

func parsePrincipal(field, value string) (common.Address, error) {
	addr, err := utils.ParseAddress(value)
	if err != nil {
		return common.Address{}, rtaerrors.ErrInvalidInput.Newf("%s: %v", field, err)
	}
	return addr, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := utils.ParseAmount(value)
	if err != nil {
		return decimal.Zero, rtaerrors.ErrInvalidInput.Newf("%s: %v", field, err)
	}
	return amount, nil
}

func (s *BaseNodeService) SubmitOperation(dto *dto.SubmitOperationDTO) (*types.EvaluationResult, error) {
	caller, err := parsePrincipal("principal", dto.Principal)
	if err != nil {
		return nil, err
	}
	target, err := parsePrincipal("target", dto.Target)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount("value", dto.Value)
	if err != nil {
		return nil, err
	}

	var result *types.EvaluationResult
	err = s.call("submitOperation", func(ctx context.Context, kv state.KVCacheWrap) (err error) {
		result, err = s.registry.Submit(ctx, kv, caller, target, dto.Instruction, value)
		return
	})
	return result, err
}

func (s *BaseNodeService) ConfirmOperation(dto *dto.OperationIdDTO) (*types.EvaluationResult, error) {
	caller, err := parsePrincipal("principal", dto.Principal)
	if err != nil {
		return nil, err
	}

	var result *types.EvaluationResult
	err = s.call("confirmOperation", func(ctx context.Context, kv state.KVCacheWrap) (err error) {
		result, err = s.registry.Confirm(ctx, kv, caller, dto.OperationID)
		return
	})
	return result, err
}

func (s *BaseNodeService) RevokeConfirmation(dto *dto.OperationIdDTO) (*types.Operation, error) {
	caller, err := parsePrincipal("principal", dto.Principal)
	if err != nil {
		return nil, err
	}

	var op *types.Operation
	err = s.call("revokeConfirmation", func(ctx context.Context, kv state.KVCacheWrap) (err error) {
		op, err = s.registry.Revoke(ctx, kv, caller, dto.OperationID)
		return
	})
	return op, err
}

// ExecuteOperation re-evaluates an operation against the current signer set.
func (s *BaseNodeService) ExecuteOperation(dto *dto.OperationIdDTO) (*types.EvaluationResult, error) {
	caller, err := parsePrincipal("principal", dto.Principal)
	if err != nil {
		return nil, err
	}

	var result *types.EvaluationResult
	err = s.call("executeOperation", func(ctx context.Context, kv state.KVCacheWrap) (err error) {
		result, err = s.registry.Execute(ctx, kv, caller, dto.OperationID)
		return
	})
	return result, err
}

// ReplaceCode is a direct upgrade attempt. Outside an executed upgradeTo
// operation it always fails with ErrUpgradeNotAuthorized.
func (s *BaseNodeService) ReplaceCode(dto *dto.ReplaceCodeDTO) error {
	caller, err := parsePrincipal("principal", dto.Principal)
	if err != nil {
		return err
	}

	return s.call("replaceCode", func(ctx context.Context, kv state.KVCacheWrap) error {
		s.Logger.Warn().Str("principal", caller.Hex()).Str("version", dto.Version).Msg("direct code replacement attempt")
		return s.registry.ReplaceCode(ctx, kv, upgrade.Implementation{
			Version:    dto.Version,
			CodeHash:   common.HexToHash(dto.CodeHash),
			UpgradedAt: types.BlockTime(ctx),
		})
	})
}

func (s *BaseNodeService) RequestTransfer(dto *dto.TransferRequestDTO) (*types.TransferRequest, error) {
	caller, err := parsePrincipal("principal", dto.Principal)
	if err != nil {
		return nil, err
	}
	from, err := parsePrincipal("from", dto.From)
	if err != nil {
		return nil, err
	}
	to, err := parsePrincipal("to", dto.To)
	if err != nil {
		return nil, err
	}
	feeToken := types.NativeFeeToken
	if dto.FeeToken != "" {
		if feeToken, err = parsePrincipal("fee_token", dto.FeeToken); err != nil {
			return nil, err
		}
	}
	amount, err := parseAmount("amount", dto.Amount)
	if err != nil {
		return nil, err
	}
	feeAmount, err := parseAmount("fee_amount", dto.FeeAmount)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount("value", dto.Value)
	if err != nil {
		return nil, err
	}

	var tr *types.TransferRequest
	err = s.call("requestTransfer", func(ctx context.Context, kv state.KVCacheWrap) (err error) {
		tr, err = s.ledger.RequestTransferWithFee(ctx, kv, caller, requests.TransferWithFeeRequest{
			From:      from,
			To:        to,
			Amount:    amount,
			FeeToken:  feeToken,
			FeeAmount: feeAmount,
			Value:     value,
		})
		return
	})
	return tr, err
}

// AgentCall invokes a privileged ledger method directly as the principal. It
// succeeds only when the principal is the bound transfer agent.
func (s *BaseNodeService) AgentCall(dto *dto.AgentCallDTO) error {
	caller, err := parsePrincipal("principal", dto.Principal)
	if err != nil {
		return err
	}
	ins, err := types.DecodeInstruction(dto.Instruction)
	if err != nil {
		return rtaerrors.ErrInvalidInput.New(err.Error())
	}
	if !s.ledger.HasMethod(ins.Method) {
		return rtaerrors.ErrUnknownMethod.New(ins.Method)
	}

	return s.call("agentCall", func(ctx context.Context, kv state.KVCacheWrap) error {
		return s.ledger.Call(ctx, kv, caller, ins, decimal.Zero)
	})
}
