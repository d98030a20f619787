package ledger

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	usdc  = common.HexToAddress("0x00000000000000000000000000000000000000c0")
)

func TestLedgerRepo_Amounts(t *testing.T) {
	req := require.New(t)
	kv := state.NewMemState()
	repo := NewLedgerRepo(kv, "ledger")

	balance, err := repo.GetBalance(alice)
	req.NoError(err)
	req.True(balance.IsZero())

	req.NoError(repo.PutBalance(alice, decimal.RequireFromString("1000.25")))
	balance, err = repo.GetBalance(alice)
	req.NoError(err)
	req.Equal("1000.25", balance.String())

	// Zero balances are removed from the state.
	req.NoError(repo.PutBalance(alice, decimal.Zero))
	bz, err := kv.Get(state.MakeCompositeKeyString("ledger_balance", alice.Hex()))
	req.NoError(err)
	req.Nil(bz)

	req.NoError(repo.PutFeeCredit(alice, usdc, decimal.NewFromInt(3)))
	credit, err := repo.GetFeeCredit(alice, usdc)
	req.NoError(err)
	req.True(credit.Equal(decimal.NewFromInt(3)))
	credit, err = repo.GetFeeCredit(bob, usdc)
	req.NoError(err)
	req.True(credit.IsZero())
}

func TestLedgerRepo_Flags(t *testing.T) {
	req := require.New(t)
	repo := NewLedgerRepo(state.NewMemState(), "ledger")

	frozen, err := repo.IsFrozen(alice)
	req.NoError(err)
	req.False(frozen)

	req.NoError(repo.PutFrozen(alice, true))
	req.NoError(repo.PutBroker(bob, true))

	frozen, err = repo.IsFrozen(alice)
	req.NoError(err)
	req.True(frozen)
	broker, err := repo.IsBroker(bob)
	req.NoError(err)
	req.True(broker)

	req.NoError(repo.PutFrozen(alice, false))
	frozen, err = repo.IsFrozen(alice)
	req.NoError(err)
	req.False(frozen)
}

func TestLedgerRepo_TransferRequests(t *testing.T) {
	req := require.New(t)
	repo := NewLedgerRepo(state.NewMemState(), "ledger")

	_, err := repo.GetTransferRequestByID(1)
	req.True(rtaerrors.ErrUnknownRequest.Is(err))

	for i := 1; i <= 2; i++ {
		id, err := repo.NextRequestID()
		req.NoError(err)
		req.Equal(uint64(i), id)
		req.NoError(repo.PutTransferRequest(&types.TransferRequest{
			ID:          id,
			From:        alice,
			To:          bob,
			Amount:      decimal.NewFromInt(100),
			FeeToken:    types.NativeFeeToken,
			FeeAmount:   decimal.Zero,
			Status:      types.StatusRequested,
			RequestedBy: alice,
			RequestedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}))
	}

	list, err := repo.GetTransferRequests()
	req.NoError(err)
	req.Len(list, 2)
	req.Equal(types.StatusRequested, list[1].Status)
	req.True(list[1].Amount.Equal(decimal.NewFromInt(100)))
}

func TestLedgerRepo_AgentAndFees(t *testing.T) {
	req := require.New(t)
	repo := NewLedgerRepo(state.NewMemState(), "ledger")

	agent, err := repo.GetTransferAgent()
	req.NoError(err)
	req.Nil(agent)
	req.NoError(repo.PutTransferAgent(alice))
	agent, err = repo.GetTransferAgent()
	req.NoError(err)
	req.Equal(alice, *agent)

	params, err := repo.GetFeeParameters()
	req.NoError(err)
	req.Equal(types.FeeTypeFlat, params.Type)
	req.True(params.Value.IsZero())

	req.NoError(repo.PutFeeParameters(&types.FeeParameters{
		Type:           types.FeeTypePercentage,
		Value:          decimal.NewFromInt(25),
		AcceptedTokens: []common.Address{usdc},
	}))
	params, err = repo.GetFeeParameters()
	req.NoError(err)
	req.Equal(types.FeeTypePercentage, params.Type)
	req.Equal([]common.Address{usdc}, params.AcceptedTokens)
}
