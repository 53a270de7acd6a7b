package service

import (
	"errors"
	"fmt"

	"wallet-manager/internal/chain"
)

// Domain error kinds. Every failure crossing out of this package wraps one
// of these sentinels; the HTTP layer maps them to status codes without
// inspecting raw transport errors.
var (
	// ErrValidation indicates a user-correctable request problem.
	ErrValidation = errors.New("validation failed")
	// ErrWalletNotFound indicates no wallet has been provisioned for the user.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrRecipientNotFound indicates the transfer recipient has no wallet.
	ErrRecipientNotFound = errors.New("recipient wallet not found")
	// ErrInsufficientFunds indicates the cached balance cannot cover the debit.
	ErrInsufficientFunds = errors.New("insufficient token balance")
	// ErrUpstreamUnavailable indicates the identity provider, vault or
	// ledger was unreachable or timed out; the caller may retry.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	// ErrLedgerRejected indicates the ledger accepted the submission but the
	// transaction reverted or was rejected; not blindly retryable.
	ErrLedgerRejected = errors.New("ledger rejected transaction")
	// ErrProvisioningInconsistency indicates a wallet address exists without
	// a recoverable key (or vice versa); requires manual remediation.
	ErrProvisioningInconsistency = errors.New("wallet provisioning inconsistent")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func upstreamErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, op, err)
}

// ledgerErr classifies a failed ledger write. Reverted or unmined
// transactions are ledger rejections; RPC failures, timeouts and
// cancellations are upstream availability problems.
func ledgerErr(op string, err error) error {
	if errors.Is(err, chain.ErrTxReverted) || errors.Is(err, chain.ErrTxNotMined) {
		return fmt.Errorf("%w: %s: %v", ErrLedgerRejected, op, err)
	}
	return upstreamErr(op, err)
}
