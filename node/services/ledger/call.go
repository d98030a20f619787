package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

var privilegedMethods = map[string]bool{
	types.MethodMint:                   true,
	types.MethodBurn:                   true,
	types.MethodTransferFrom:           true,
	types.MethodSetFeeParameters:       true,
	types.MethodSetBrokerStatus:        true,
	types.MethodSetAccountFrozen:       true,
	types.MethodProcessTransferRequest: true,
	types.MethodExecuteCourtOrder:      true,
	types.MethodRecoverToken:           true,
	types.MethodUpgradeTo:              true,
}

func (l *TransferRequestLedger) HasMethod(method string) bool {
	return privilegedMethods[method]
}

// Call decodes a privileged instruction and runs it as caller.
func (l *TransferRequestLedger) Call(ctx context.Context, kv state.KVStore, caller common.Address, ins *types.Instruction, _ decimal.Decimal) error {
	switch ins.Method {
	case types.MethodMint:
		var request requests.MintRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.Mint(ctx, kv, caller, request)
	case types.MethodBurn:
		var request requests.BurnRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.Burn(ctx, kv, caller, request)
	case types.MethodTransferFrom:
		var request requests.TransferFromRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.TransferFrom(ctx, kv, caller, request)
	case types.MethodSetFeeParameters:
		var request requests.FeeParametersRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.SetFeeParameters(ctx, kv, caller, request)
	case types.MethodSetBrokerStatus:
		var request requests.BrokerStatusRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.SetBrokerStatus(ctx, kv, caller, request)
	case types.MethodSetAccountFrozen:
		var request requests.AccountFrozenRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.SetAccountFrozen(ctx, kv, caller, request)
	case types.MethodProcessTransferRequest:
		var request requests.ProcessTransferRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.ProcessTransferRequest(ctx, kv, caller, request)
	case types.MethodExecuteCourtOrder:
		var request requests.CourtOrderRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.ExecuteCourtOrder(ctx, kv, caller, request)
	case types.MethodRecoverToken:
		var request requests.RecoverTokenRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.RecoverToken(ctx, kv, caller, request)
	case types.MethodUpgradeTo:
		var request requests.UpgradeRequest
		if err := decodeArgs(ins, &request); err != nil {
			return err
		}
		return l.UpgradeTo(ctx, kv, caller, request)
	default:
		return rtaerrors.ErrUnknownMethod.New(ins.Method)
	}
}

func decodeArgs(ins *types.Instruction, dst interface{}) error {
	if err := ins.DecodeArgs(dst); err != nil {
		return rtaerrors.ErrInvalidInput.New(err.Error())
	}
	return nil
}
