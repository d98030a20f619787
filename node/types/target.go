package types

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/node/modules/state"
)

// Target is a component an executed operation can call into.
type Target interface {
	Address() common.Address
	HasMethod(method string) bool
	Call(ctx context.Context, kv state.KVStore, caller common.Address, ins *Instruction, value decimal.Decimal) error
}
