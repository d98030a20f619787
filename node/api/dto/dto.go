package dto

import "encoding/json"

// This packages contains DTO (Data Transfer Object) structures
// for providing validated and sanitized values to service layer.
// Principals and amounts stay strings here, the node service parses them.

type SubmitOperationDTO struct {
	Principal   string
	Target      string
	Instruction json.RawMessage
	Value       string
}

type OperationIdDTO struct {
	Principal   string
	OperationID uint64
}

type OperationsDTO struct {
	Pending bool
}

type HasConfirmedDTO struct {
	OperationID uint64
	Principal   string
}

type ReplaceCodeDTO struct {
	Principal string
	Version   string
	CodeHash  string
}

type TransferRequestDTO struct {
	Principal string
	From      string
	To        string
	Amount    string
	FeeToken  string
	FeeAmount string
	Value     string
}

type TransferRequestIdDTO struct {
	RequestID uint64
}

type TransferRequestsDTO struct {
	Status string
}

type AgentCallDTO struct {
	Principal   string
	Instruction json.RawMessage
}

type AccountDTO struct {
	Address string
}
