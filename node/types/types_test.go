package types

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	signer1 = common.HexToAddress("0x1000000000000000000000000000000000000001")
	signer2 = common.HexToAddress("0x1000000000000000000000000000000000000002")
	signer3 = common.HexToAddress("0x1000000000000000000000000000000000000003")
)

func TestActiveConfirmations(t *testing.T) {
	req := require.New(t)

	confirmers := []common.Address{signer1, signer2, signer3}
	req.Equal(3, ActiveConfirmations(confirmers, []common.Address{signer1, signer2, signer3}))
	req.Equal(2, ActiveConfirmations(confirmers, []common.Address{signer1, signer3}))
	req.Equal(0, ActiveConfirmations(confirmers, nil))
	req.Equal(0, ActiveConfirmations(nil, []common.Address{signer1}))
}

func TestSignerSet(t *testing.T) {
	req := require.New(t)

	set := SignerSet{Signers: []common.Address{signer1, signer2}, RequiredSignatures: 2}
	req.True(set.Contains(signer2))
	req.False(set.Contains(signer3))
	req.Equal(1, set.IndexOf(signer2))
	req.True(set.Satisfiable())

	set.RequiredSignatures = 3
	req.False(set.Satisfiable())
}

func TestInstruction_Selector(t *testing.T) {
	req := require.New(t)

	ins := Instruction{Method: "transfer(address,uint256)"}
	req.Equal("0xa9059cbb", ins.Selector())

	mint, err := NewInstruction(MethodMint, map[string]string{"to": signer1.Hex(), "amount": "10"})
	req.NoError(err)
	req.Equal("mint(address,uint256)", mint.Signature())
	req.Len(mint.Selector(), 10)
}

func TestInstruction_EncodeDecode(t *testing.T) {
	req := require.New(t)

	data, err := EncodeInstruction(MethodSetAccountFrozen, map[string]interface{}{"account": signer1.Hex(), "frozen": true})
	req.NoError(err)

	ins, err := DecodeInstruction(data)
	req.NoError(err)
	req.Equal(MethodSetAccountFrozen, ins.Method)

	var args struct {
		Account common.Address `json:"account"`
		Frozen  bool           `json:"frozen"`
	}
	req.NoError(ins.DecodeArgs(&args))
	req.Equal(signer1, args.Account)
	req.True(args.Frozen)

	_, err = DecodeInstruction([]byte(`{"args":{}}`))
	req.Error(err)
	_, err = DecodeInstruction([]byte(`not json`))
	req.Error(err)
}

func TestFeeParameters_RequiredFee(t *testing.T) {
	req := require.New(t)

	flat := FeeParameters{Type: FeeTypeFlat, Value: decimal.NewFromInt(5)}
	req.True(flat.RequiredFee(decimal.NewFromInt(1000), 10000).Equal(decimal.NewFromInt(5)))

	pct := FeeParameters{Type: FeeTypePercentage, Value: decimal.NewFromInt(250)}
	req.True(pct.RequiredFee(decimal.NewFromInt(1000), 10000).Equal(decimal.NewFromInt(25)))

	req.True(pct.Accepts(NativeFeeToken))
	req.False(pct.Accepts(signer1))
	pct.AcceptedTokens = []common.Address{signer1}
	req.True(pct.Accepts(signer1))
}

func TestEmit(t *testing.T) {
	req := require.New(t)

	buf := NewEventBuffer()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := WithBlockTime(WithEvents(context.Background(), buf), now)

	req.NoError(Emit(ctx, EventMinted, signer1, map[string]string{"amount": "1"}))
	req.Len(buf.Events(), 1)
	req.Equal(EventMinted, buf.Events()[0].Name)
	req.Equal(now, buf.Events()[0].Time)

	var data map[string]string
	req.NoError(json.Unmarshal(buf.Events()[0].Data, &data))
	req.Equal("1", data["amount"])

	// No buffer in the context: the event goes nowhere.
	req.NoError(Emit(context.Background(), EventMinted, signer1, nil))

	child := NewEventBuffer()
	child.Emit(Event{Name: EventBurned})
	buf.Merge(child)
	req.Len(buf.Events(), 2)
}
