package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	MethodAddSigner                = "addSigner"
	MethodRemoveSigner             = "removeSigner"
	MethodUpdateRequiredSignatures = "updateRequiredSignatures"
	MethodUpgradeTo                = "upgradeTo"

	MethodMint                   = "mint"
	MethodBurn                   = "burn"
	MethodTransferFrom           = "transferFrom"
	MethodSetFeeParameters       = "setFeeParameters"
	MethodSetBrokerStatus        = "setBrokerStatus"
	MethodSetAccountFrozen       = "setAccountFrozen"
	MethodProcessTransferRequest = "processTransferRequest"
	MethodExecuteCourtOrder      = "executeCourtOrder"
	MethodRecoverToken           = "recoverToken"
)

var methodSignatures = map[string]string{
	MethodAddSigner:                "addSigner(address)",
	MethodRemoveSigner:             "removeSigner(address)",
	MethodUpdateRequiredSignatures: "updateRequiredSignatures(uint256)",
	MethodUpgradeTo:                "upgradeTo(string,bytes32)",

	MethodMint:                   "mint(address,uint256)",
	MethodBurn:                   "burn(address,uint256)",
	MethodTransferFrom:           "transferFrom(address,address,uint256)",
	MethodSetFeeParameters:       "setFeeParameters(uint8,uint256,address[])",
	MethodSetBrokerStatus:        "setBrokerStatus(address,bool)",
	MethodSetAccountFrozen:       "setAccountFrozen(address,bool)",
	MethodProcessTransferRequest: "processTransferRequest(uint256,bool)",
	MethodExecuteCourtOrder:      "executeCourtOrder(address,address,uint256,string)",
	MethodRecoverToken:           "recoverToken(address,address,uint256)",
}

// Instruction is the payload of an operation: a method of the target and its
// JSON encoded arguments.
type Instruction struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args,omitempty"`
}

func NewInstruction(method string, args interface{}) (*Instruction, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s args: %w", method, err)
	}
	return &Instruction{Method: method, Args: raw}, nil
}

// EncodeInstruction builds operation data for method.
func EncodeInstruction(method string, args interface{}) ([]byte, error) {
	ins, err := NewInstruction(method, args)
	if err != nil {
		return nil, err
	}
	return ins.Bytes()
}

func DecodeInstruction(data []byte) (*Instruction, error) {
	var ins Instruction
	if err := json.Unmarshal(data, &ins); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instruction: %w", err)
	}
	if ins.Method == "" {
		return nil, fmt.Errorf("instruction has no method")
	}
	return &ins, nil
}

func (i *Instruction) Bytes() ([]byte, error) {
	return json.Marshal(i)
}

// DecodeArgs unmarshals the arguments into dst.
func (i *Instruction) DecodeArgs(dst interface{}) error {
	if len(i.Args) == 0 {
		return fmt.Errorf("%s: empty args", i.Method)
	}
	if err := json.Unmarshal(i.Args, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s args: %w", i.Method, err)
	}
	return nil
}

// Signature returns the canonical signature of the method, or the bare
// method name when it is not a known one.
func (i *Instruction) Signature() string {
	if sig, ok := methodSignatures[i.Method]; ok {
		return sig
	}
	return i.Method
}

// Selector is the first four bytes of keccak256(signature), hex encoded with
// 0x prefix.
func (i *Instruction) Selector() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(i.Signature()))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}
