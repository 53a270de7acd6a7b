package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"wallet-manager/internal/client/vault"
	"wallet-manager/internal/logger"
)

// Provisioner guarantees exactly one custodial wallet per user. The keypair
// is generated locally, the private key goes to the vault, the address to
// the user directory; the two writes are made atomic in effect by writing
// the secret first and deleting it again if the directory write fails.
type Provisioner struct {
	directory    Directory
	vault        Vault
	secretPrefix string
	locks        *keyedMutex
}

// NewProvisioner creates a wallet provisioner. secretPrefix namespaces the
// vault entries, e.g. "wallet-manager" yields "wallet-manager/wallets/<id>".
func NewProvisioner(directory Directory, vlt Vault, secretPrefix string) *Provisioner {
	return &Provisioner{
		directory:    directory,
		vault:        vlt,
		secretPrefix: secretPrefix,
		locks:        newKeyedMutex(),
	}
}

// EnsureWallet returns the user's wallet address, creating the wallet on
// first sight. Concurrent calls for the same user serialize on a per-user
// lock, so at most one wallet and one private key are ever created.
func (p *Provisioner) EnsureWallet(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", validationErr("user id is required")
	}

	p.locks.Lock(userID)
	defer p.locks.Unlock(userID)

	address, found, err := p.directory.GetUserField(ctx, userID, fieldWalletAddress)
	if err != nil {
		return "", upstreamErr("look up wallet address", err)
	}
	if found {
		logger.Debug("Wallet already exists",
			zap.String("user_id", userID),
			zap.String("address", address))
		return address, nil
	}

	return p.createWallet(ctx, userID)
}

func (p *Provisioner) createWallet(ctx context.Context, userID string) (string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generate keypair: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	keyHex := "0x" + hex.EncodeToString(crypto.FromECDSA(key))

	// Secret first: an orphaned secret is recoverable on retry, an address
	// without a key is not.
	if err := p.vault.PutSecret(ctx, p.secretName(userID), keyHex); err != nil {
		return "", upstreamErr("store wallet key", err)
	}

	if err := p.directory.SetUserField(ctx, userID, fieldWalletAddress, address); err != nil {
		p.rollbackSecret(ctx, userID)
		return "", upstreamErr("record wallet address", err)
	}

	logger.Info("Wallet created",
		zap.String("user_id", userID),
		zap.String("address", address))
	return address, nil
}

// rollbackSecret compensates a failed directory write. Runs detached from
// the request's cancellation so a timed-out request still cleans up.
func (p *Provisioner) rollbackSecret(ctx context.Context, userID string) {
	if err := p.vault.DeleteSecret(context.WithoutCancel(ctx), p.secretName(userID)); err != nil {
		logger.Error("Failed to roll back wallet secret; manual cleanup required",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// ResolveWallet returns the user's wallet address without side effects.
func (p *Provisioner) ResolveWallet(ctx context.Context, userID string) (string, error) {
	address, found, err := p.directory.GetUserField(ctx, userID, fieldWalletAddress)
	if err != nil {
		return "", upstreamErr("look up wallet address", err)
	}
	if !found {
		return "", fmt.Errorf("%w: user %s", ErrWalletNotFound, userID)
	}
	return address, nil
}

// ResolveSigner returns the user's wallet address together with its private
// key. An address whose key cannot be recovered is reported as a
// provisioning inconsistency, distinct from a plain not-found.
func (p *Provisioner) ResolveSigner(ctx context.Context, userID string) (address, keyHex string, err error) {
	address, err = p.ResolveWallet(ctx, userID)
	if err != nil {
		return "", "", err
	}

	keyHex, err = p.vault.GetSecret(ctx, p.secretName(userID))
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return "", "", fmt.Errorf("%w: address %s recorded but key unrecoverable for user %s",
				ErrProvisioningInconsistency, address, userID)
		}
		return "", "", upstreamErr("retrieve wallet key", err)
	}
	return address, keyHex, nil
}

func (p *Provisioner) secretName(userID string) string {
	return p.secretPrefix + "/wallets/" + userID
}
