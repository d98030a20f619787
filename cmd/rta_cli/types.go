package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fatih/color"

	cs "github.com/lidofinance/rta/node/api/http_api/context_service"
	"github.com/lidofinance/rta/node/api/http_api/responses"
	"github.com/lidofinance/rta/node/types"
)

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	pendingColor = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed, color.Bold)
	labelColor   = color.New(color.FgCyan)
)

// ResponseError is a non-2xx answer of the node.
type ResponseError struct {
	Status  int
	Class   string
	Code    uint32
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s (class %s, code %d, http %d)", e.Message, e.Class, e.Code, e.Status)
}

func readResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()
	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	var response responses.BaseResponse
	if err = json.Unmarshal(responseBody, &response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %v", err)
	}
	if resp.StatusCode != http.StatusOK || response.ErrorMessage != "" {
		return &ResponseError{
			Status:  resp.StatusCode,
			Class:   response.ErrorClass,
			Code:    response.ErrorCode,
			Message: response.ErrorMessage,
		}
	}
	if result == nil || len(response.Result) == 0 {
		return nil
	}
	if err = json.Unmarshal(response.Result, result); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}

func getRequest(host, path string, query url.Values, result interface{}) error {
	target := fmt.Sprintf("http://%s%s", host, path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	resp, err := http.Get(target)
	if err != nil {
		return fmt.Errorf("failed to make HTTP request to %s: %w", path, err)
	}
	return readResponse(resp, result)
}

func postRequest(host, path, principal string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s%s", host, path), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(cs.PrincipalHeader, principal)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make HTTP request to %s: %w", path, err)
	}
	return readResponse(resp, result)
}

// buildInstruction wraps the JSON args of method into operation data.
func buildInstruction(method, args string) (json.RawMessage, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, fmt.Errorf("method cannot be empty")
	}
	var raw json.RawMessage
	if strings.TrimSpace(args) != "" {
		if !json.Valid([]byte(args)) {
			return nil, fmt.Errorf("args of %s are not valid JSON", method)
		}
		raw = json.RawMessage(args)
	}
	return (&types.Instruction{Method: method, Args: raw}).Bytes()
}

// describeInstruction renders operation data as "method(args) selector".
func describeInstruction(data []byte) string {
	ins, err := types.DecodeInstruction(data)
	if err != nil {
		return fmt.Sprintf("<undecodable instruction: %v>", err)
	}
	return fmt.Sprintf("%s %s %s", ins.Signature(), ins.Selector(), string(ins.Args))
}

func printOperation(op *types.Operation) {
	status := pendingColor.Sprint(op.Status())
	if op.Executed {
		status = okColor.Sprint(op.Status())
	}
	fmt.Printf("%s %d [%s]\n", labelColor.Sprint("Operation ID:"), op.ID, status)
	fmt.Printf("%s %s\n", labelColor.Sprint("Target:"), op.Target.Hex())
	fmt.Printf("%s %s\n", labelColor.Sprint("Instruction:"), describeInstruction(op.Data))
	fmt.Printf("%s %s\n", labelColor.Sprint("Creator:"), op.Creator.Hex())
	for _, c := range op.Confirmations {
		fmt.Printf("  confirmed by %s\n", c.Hex())
	}
	if op.LastError != "" {
		fmt.Printf("%s %s\n", labelColor.Sprint("Last error:"), errColor.Sprint(op.LastError))
	}
	fmt.Println("-----------------------------------------------------")
}

func printEvaluation(result *types.EvaluationResult) {
	printOperation(result.Operation)
	fmt.Printf("Active confirmations: %d of %d\n", result.ActiveConfirmations, result.RequiredSignatures)
	switch {
	case result.Executed:
		okColor.Println("executed")
	case result.ExecutionError != "":
		errColor.Printf("execution failed: %s\n", result.ExecutionError)
	default:
		pendingColor.Println("pending")
	}
}

func printTransferRequest(tr *types.TransferRequest) {
	status := pendingColor.Sprint(tr.Status)
	switch tr.Status {
	case types.StatusApproved:
		status = okColor.Sprint(tr.Status)
	case types.StatusRejected:
		status = errColor.Sprint(tr.Status)
	}
	fmt.Printf("%s %d [%s]\n", labelColor.Sprint("Request ID:"), tr.ID, status)
	fmt.Printf("  %s -> %s: %s\n", tr.From.Hex(), tr.To.Hex(), tr.Amount)
	fmt.Printf("  fee %s of %s, requested by %s\n", tr.FeeAmount, tr.FeeToken.Hex(), tr.RequestedBy.Hex())
}
