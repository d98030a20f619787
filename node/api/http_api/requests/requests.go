package requests

import "encoding/json"

// Principal fields are never bound from the request, handlers take them from
// the X-Principal header.

type SubmitOperationForm struct {
	Principal   string          `json:"-" query:"-"`
	Target      string          `json:"target" validate:"attr=target,min=40"`
	Instruction json.RawMessage `json:"instruction"`
	Value       string          `json:"value"`
}

type OperationIdForm struct {
	Principal   string `json:"-" query:"-"`
	OperationID uint64 `query:"id" json:"id"`
}

type OperationsForm struct {
	Pending bool `query:"pending" json:"pending"`
}

type HasConfirmedForm struct {
	OperationID uint64 `query:"id" json:"id"`
	Principal   string `query:"principal" json:"principal" validate:"attr=principal,min=40"`
}

type ReplaceCodeForm struct {
	Principal string `json:"-" query:"-"`
	Version   string `json:"version" validate:"attr=version,min=1"`
	CodeHash  string `json:"code_hash"`
}

type TransferRequestForm struct {
	Principal string `json:"-" query:"-"`
	From      string `json:"from" validate:"attr=from,min=40"`
	To        string `json:"to" validate:"attr=to,min=40"`
	Amount    string `json:"amount" validate:"attr=amount,min=1"`
	FeeToken  string `json:"fee_token"`
	FeeAmount string `json:"fee_amount"`
	Value     string `json:"value"`
}

type TransferRequestIdForm struct {
	RequestID uint64 `query:"id" json:"id"`
}

type TransferRequestsForm struct {
	Status string `query:"status" json:"status"`
}

type AgentCallForm struct {
	Principal   string          `json:"-" query:"-"`
	Instruction json.RawMessage `json:"instruction"`
}

type AccountForm struct {
	Address string `query:"address" json:"address" validate:"attr=address,min=40"`
}
