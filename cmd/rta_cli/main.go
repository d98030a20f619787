package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lidofinance/rta/node/api/http_api/responses"
	"github.com/lidofinance/rta/node/types"
	"github.com/lidofinance/rta/pkg/upgrade"
)

const (
	flagListenAddr = "listen_addr"
	flagPrincipal  = "principal"

	flagTarget    = "target"
	flagMethod    = "method"
	flagArgs      = "args"
	flagValue     = "value"
	flagPending   = "pending"
	flagStatus    = "status"
	flagFrom      = "from"
	flagTo        = "to"
	flagAmount    = "amount"
	flagFeeToken  = "fee_token"
	flagFeeAmount = "fee_amount"
	flagVersion   = "version"
	flagCodeHash  = "code_hash"
)

func init() {
	rootCmd.PersistentFlags().String(flagListenAddr, "localhost:8080", "Listen Address")
	rootCmd.PersistentFlags().String(flagPrincipal, "", "Address of the caller")
}

var rootCmd = &cobra.Command{
	Use:   "rta_cli",
	Short: "transfer agent ledger node cli utilities implementation",
}

func main() {
	rootCmd.AddCommand(
		getUsernameCommand(),
		submitCommand(),
		confirmCommand(),
		revokeCommand(),
		executeCommand(),
		getOperationCommand(),
		getOperationsCommand(),
		hasConfirmedCommand(),
		signersCommand(),
		implementationCommand(),
		replaceCodeCommand(),
		requestTransferCommand(),
		getRequestCommand(),
		getRequestsCommand(),
		accountCommand(),
		feesCommand(),
		supplyCommand(),
		agentCallCommand(),
		instructionCommand(),
	)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute root command: %v", err)
	}
}

func readFlags(cmd *cobra.Command) (host, principal string, err error) {
	if host, err = cmd.Flags().GetString(flagListenAddr); err != nil {
		return "", "", fmt.Errorf("failed to read configuration: %v", err)
	}
	if principal, err = cmd.Flags().GetString(flagPrincipal); err != nil {
		return "", "", fmt.Errorf("failed to read configuration: %v", err)
	}
	return host, principal, nil
}

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}

func getUsernameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_username",
		Short: "returns the name of the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var username string
			if err = getRequest(host, "/getUsername", nil, &username); err != nil {
				return fmt.Errorf("failed to get username: %w", err)
			}
			fmt.Println(username)
			return nil
		},
	}
}

func submitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "submits an operation for --target, --method and --args and confirms it as the principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, principal, err := readFlags(cmd)
			if err != nil {
				return err
			}
			target, _ := cmd.Flags().GetString(flagTarget)
			method, _ := cmd.Flags().GetString(flagMethod)
			methodArgs, _ := cmd.Flags().GetString(flagArgs)
			value, _ := cmd.Flags().GetString(flagValue)

			instruction, err := buildInstruction(method, methodArgs)
			if err != nil {
				return err
			}

			var result types.EvaluationResult
			err = postRequest(host, "/submitOperation", principal, map[string]interface{}{
				"target":      target,
				"instruction": instruction,
				"value":       value,
			}, &result)
			if err != nil {
				return fmt.Errorf("failed to submit operation: %w", err)
			}
			printEvaluation(&result)
			return nil
		},
	}
	cmd.Flags().String(flagTarget, "", "Address of the target contract")
	cmd.Flags().String(flagMethod, "", "Method of the target")
	cmd.Flags().String(flagArgs, "", "JSON encoded method arguments")
	cmd.Flags().String(flagValue, "", "Value attached to the operation")
	return cmd
}

func operationCallCommand(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [operation_id]",
		Args:  cobra.ExactArgs(1),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, principal, err := readFlags(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if path == "/revokeConfirmation" {
				var op types.Operation
				if err = postRequest(host, path, principal, map[string]uint64{"id": id}, &op); err != nil {
					return fmt.Errorf("failed to %s operation: %w", use, err)
				}
				printOperation(&op)
				return nil
			}

			var result types.EvaluationResult
			if err = postRequest(host, path, principal, map[string]uint64{"id": id}, &result); err != nil {
				return fmt.Errorf("failed to %s operation: %w", use, err)
			}
			printEvaluation(&result)
			return nil
		},
	}
}

func confirmCommand() *cobra.Command {
	return operationCallCommand("confirm", "confirms an operation as the principal", "/confirmOperation")
}

func revokeCommand() *cobra.Command {
	return operationCallCommand("revoke", "revokes the principal's confirmation of an operation", "/revokeConfirmation")
}

func executeCommand() *cobra.Command {
	return operationCallCommand("execute", "evaluates an operation against the current signer set", "/executeOperation")
}

func getOperationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_operation [operation_id]",
		Args:  cobra.ExactArgs(1),
		Short: "returns an operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var op types.Operation
			if err = getRequest(host, "/getOperation", url.Values{"id": {args[0]}}, &op); err != nil {
				return fmt.Errorf("failed to get operation: %w", err)
			}
			printOperation(&op)
			return nil
		},
	}
}

func getOperationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get_operations",
		Short: "returns operations, only pending ones with --pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			pending, _ := cmd.Flags().GetBool(flagPending)
			var operations []*types.Operation
			err = getRequest(host, "/getOperations", url.Values{"pending": {strconv.FormatBool(pending)}}, &operations)
			if err != nil {
				return fmt.Errorf("failed to get operations: %w", err)
			}
			for _, op := range operations {
				printOperation(op)
			}
			return nil
		},
	}
	cmd.Flags().Bool(flagPending, false, "Only pending operations")
	return cmd
}

func hasConfirmedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "has_confirmed [operation_id] [address]",
		Args:  cobra.ExactArgs(2),
		Short: "reports whether address confirmed the operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var resp responses.HasConfirmedResponse
			if err = getRequest(host, "/hasConfirmed", url.Values{"id": {args[0]}, "principal": {args[1]}}, &resp); err != nil {
				return fmt.Errorf("failed to check confirmation: %w", err)
			}
			fmt.Println(resp.Confirmed)
			return nil
		},
	}
}

func signersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signers",
		Short: "returns the signer set and the required signatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var set types.SignerSet
			if err = getRequest(host, "/getSigners", nil, &set); err != nil {
				return fmt.Errorf("failed to get signers: %w", err)
			}
			fmt.Printf("%s %d of %d\n", labelColor.Sprint("Required signatures:"), set.RequiredSignatures, len(set.Signers))
			for _, s := range set.Signers {
				fmt.Println(s.Hex())
			}
			if !set.Satisfiable() {
				errColor.Println("threshold cannot be reached by the current signers")
			}
			return nil
		},
	}
}

func implementationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "implementation",
		Short: "returns the running registry implementation",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var impl upgrade.Implementation
			if err = getRequest(host, "/getImplementation", nil, &impl); err != nil {
				return fmt.Errorf("failed to get implementation: %w", err)
			}
			if impl.Version == "" {
				fmt.Println("genesis implementation")
				return nil
			}
			fmt.Printf("%s %s (%s)\n", labelColor.Sprint("Version:"), impl.Version, impl.CodeHash.Hex())
			return nil
		},
	}
}

func replaceCodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace_code",
		Short: "attempts a direct code replacement, accepted only from an executed upgradeTo operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, principal, err := readFlags(cmd)
			if err != nil {
				return err
			}
			version, _ := cmd.Flags().GetString(flagVersion)
			codeHash, _ := cmd.Flags().GetString(flagCodeHash)
			err = postRequest(host, "/replaceCode", principal, map[string]string{
				"version":   version,
				"code_hash": codeHash,
			}, nil)
			if err != nil {
				return fmt.Errorf("failed to replace code: %w", err)
			}
			okColor.Println(responses.OK)
			return nil
		},
	}
	cmd.Flags().String(flagVersion, "", "Version of the implementation")
	cmd.Flags().String(flagCodeHash, "", "Code hash of the implementation")
	return cmd
}

func requestTransferCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request_transfer",
		Short: "requests a transfer as the holder or an approved broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, principal, err := readFlags(cmd)
			if err != nil {
				return err
			}
			body := make(map[string]string)
			for _, flag := range []string{flagFrom, flagTo, flagAmount, flagFeeToken, flagFeeAmount, flagValue} {
				if body[flag], err = cmd.Flags().GetString(flag); err != nil {
					return fmt.Errorf("failed to read configuration: %v", err)
				}
			}
			if body[flagFrom] == "" {
				body[flagFrom] = principal
			}

			var tr types.TransferRequest
			if err = postRequest(host, "/requestTransfer", principal, body, &tr); err != nil {
				return fmt.Errorf("failed to request transfer: %w", err)
			}
			printTransferRequest(&tr)
			return nil
		},
	}
	cmd.Flags().String(flagFrom, "", "Holder, the principal by default")
	cmd.Flags().String(flagTo, "", "Recipient")
	cmd.Flags().String(flagAmount, "", "Amount to transfer")
	cmd.Flags().String(flagFeeToken, "", "Fee token, native value when empty")
	cmd.Flags().String(flagFeeAmount, "", "Fee amount")
	cmd.Flags().String(flagValue, "", "Native value attached to the request")
	return cmd
}

func getRequestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get_request [request_id]",
		Args:  cobra.ExactArgs(1),
		Short: "returns a transfer request",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var tr types.TransferRequest
			if err = getRequest(host, "/getTransferRequest", url.Values{"id": {args[0]}}, &tr); err != nil {
				return fmt.Errorf("failed to get transfer request: %w", err)
			}
			printTransferRequest(&tr)
			return nil
		},
	}
}

func getRequestsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get_requests",
		Short: "returns transfer requests, filtered by --status",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			status, _ := cmd.Flags().GetString(flagStatus)
			var list []*types.TransferRequest
			if err = getRequest(host, "/getTransferRequests", url.Values{"status": {status}}, &list); err != nil {
				return fmt.Errorf("failed to get transfer requests: %w", err)
			}
			for _, tr := range list {
				printTransferRequest(tr)
			}
			return nil
		},
	}
	cmd.Flags().String(flagStatus, "", "requested, approved or rejected")
	return cmd
}

func accountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "account [address]",
		Args:  cobra.ExactArgs(1),
		Short: "returns balance, locked amount and flags of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var account types.Account
			if err = getRequest(host, "/getAccount", url.Values{"address": {args[0]}}, &account); err != nil {
				return fmt.Errorf("failed to get account: %w", err)
			}
			fmt.Printf("%s %s\n", labelColor.Sprint("Account:"), account.Address.Hex())
			fmt.Printf("  balance %s, locked %s\n", account.Balance, account.Locked)
			if account.Frozen {
				errColor.Println("  frozen")
			}
			if account.Broker {
				okColor.Println("  approved broker")
			}
			return nil
		},
	}
}

func feesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fees",
		Short: "returns the fee parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var params types.FeeParameters
			if err = getRequest(host, "/getFeeParameters", nil, &params); err != nil {
				return fmt.Errorf("failed to get fee parameters: %w", err)
			}
			fmt.Printf("%s %s %s\n", labelColor.Sprint("Fee:"), params.Type, params.Value)
			for _, t := range params.AcceptedTokens {
				fmt.Printf("  accepts %s\n", t.Hex())
			}
			return nil
		},
	}
}

func supplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "returns the total supply",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _, err := readFlags(cmd)
			if err != nil {
				return err
			}
			var resp responses.TotalSupplyResponse
			if err = getRequest(host, "/getTotalSupply", nil, &resp); err != nil {
				return fmt.Errorf("failed to get total supply: %w", err)
			}
			fmt.Println(resp.TotalSupply)
			return nil
		},
	}
}

func agentCallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent_call",
		Short: "calls a privileged ledger method directly as the principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, principal, err := readFlags(cmd)
			if err != nil {
				return err
			}
			method, _ := cmd.Flags().GetString(flagMethod)
			methodArgs, _ := cmd.Flags().GetString(flagArgs)
			instruction, err := buildInstruction(method, methodArgs)
			if err != nil {
				return err
			}
			err = postRequest(host, "/agentCall", principal, map[string]json.RawMessage{"instruction": instruction}, nil)
			if err != nil {
				return fmt.Errorf("failed to call %s: %w", method, err)
			}
			okColor.Println(responses.OK)
			return nil
		},
	}
	cmd.Flags().String(flagMethod, "", "Ledger method")
	cmd.Flags().String(flagArgs, "", "JSON encoded method arguments")
	return cmd
}

func instructionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instruction",
		Short: "prints the operation data, signature and selector of --method with --args",
		RunE: func(cmd *cobra.Command, args []string) error {
			method, _ := cmd.Flags().GetString(flagMethod)
			methodArgs, _ := cmd.Flags().GetString(flagArgs)
			instruction, err := buildInstruction(method, methodArgs)
			if err != nil {
				return err
			}
			fmt.Println(string(instruction))
			fmt.Println(describeInstruction(instruction))
			return nil
		},
	}
	cmd.Flags().String(flagMethod, "", "Method")
	cmd.Flags().String(flagArgs, "", "JSON encoded method arguments")
	return cmd
}
