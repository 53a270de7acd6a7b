package service

import (
	"context"
	"math/big"

	"wallet-manager/internal/chain"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/mocks.go -package=mocks

// Identity authenticates game clients against the identity provider.
type Identity interface {
	AuthenticateSessionTicket(ctx context.Context, ticket string) (string, error)
}

// Directory is the identity provider's key-value store: per-user fields plus
// a title-wide namespace shared by all users.
type Directory interface {
	GetUserField(ctx context.Context, userID, key string) (string, bool, error)
	SetUserField(ctx context.Context, userID, key, value string) error
	GetTitleField(ctx context.Context, key string) (string, bool, error)
	SetTitleField(ctx context.Context, key, value string) error
}

// Vault stores private keys by name. GetSecret fails with vault.ErrNotFound
// when the secret does not exist, distinguishable from transport failures.
type Vault interface {
	PutSecret(ctx context.Context, name, value string) error
	GetSecret(ctx context.Context, name string) (string, error)
	DeleteSecret(ctx context.Context, name string) error
}

// Ledger is the on-chain capability surface: balance reads plus signed
// transaction submission for the token contract and the native currency.
// Write operations block until the transaction is mined or the confirmation
// deadline passes.
type Ledger interface {
	TokenBalance(ctx context.Context, address string) (*big.Int, error)
	NativeBalance(ctx context.Context, address string) (*big.Int, error)
	Transfer(ctx context.Context, signerKeyHex, to string, amount *big.Int) (*chain.Receipt, error)
	BatchTransfer(ctx context.Context, recipients []string, amounts []*big.Int) (*chain.Receipt, error)
	SendNative(ctx context.Context, to string, amountWei *big.Int) (*chain.Receipt, error)
}
