package service_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"wallet-manager/internal/chain"
	"wallet-manager/internal/mocks"
	"wallet-manager/internal/service"
)

const (
	senderAddr    = "0x1111111111111111111111111111111111111111"
	recipientAddr = "0x2222222222222222222222222222222222222222"
	senderKey     = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
)

type transferFixture struct {
	directory *mocks.MockDirectory
	vault     *mocks.MockVault
	ledger    *mocks.MockLedger
	executor  *service.TransferExecutor
}

func newTransferFixture(ctrl *gomock.Controller) *transferFixture {
	directory := mocks.NewMockDirectory(ctrl)
	vlt := mocks.NewMockVault(ctrl)
	ledger := mocks.NewMockLedger(ctrl)

	provisioner := service.NewProvisioner(directory, vlt, "wallet-manager")
	balances := service.NewBalanceSyncer(directory, ledger, 18)
	funding := service.NewFundingGuard(ledger, wei(1, 15), wei(1, 15), true)
	return &transferFixture{
		directory: directory,
		vault:     vlt,
		ledger:    ledger,
		executor:  service.NewTransferExecutor(provisioner, balances, funding, ledger, 18),
	}
}

func wei(n, exp int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

// expectSender wires up sender resolution and the pre-transfer balance sync.
func (f *transferFixture) expectSender(balanceTokens int64) {
	f.directory.EXPECT().
		GetUserField(gomock.Any(), "sender", "WalletAddress").
		Return(senderAddr, true, nil)
	f.vault.EXPECT().
		GetSecret(gomock.Any(), "wallet-manager/wallets/sender").
		Return(senderKey, nil)
	f.ledger.EXPECT().
		TokenBalance(gomock.Any(), senderAddr).
		Return(tokens(balanceTokens), nil)
	f.directory.EXPECT().
		SetUserField(gomock.Any(), "sender", "TokenBalance", gomock.Any()).
		Return(nil)
}

func TestTransferHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newTransferFixture(ctrl)
	f.expectSender(50)
	f.directory.EXPECT().
		GetUserField(gomock.Any(), "recipient", "WalletAddress").
		Return(recipientAddr, true, nil)
	f.ledger.EXPECT().
		NativeBalance(gomock.Any(), senderAddr).
		Return(wei(1, 16), nil)
	f.ledger.EXPECT().
		Transfer(gomock.Any(), senderKey, recipientAddr, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, amount *big.Int) (*chain.Receipt, error) {
			assert.Zero(t, chain.ToWei(10, 18).Cmp(amount))
			return &chain.Receipt{TxHash: "0xsent"}, nil
		})

	// Post-transfer balance refresh for both parties.
	f.ledger.EXPECT().TokenBalance(gomock.Any(), senderAddr).Return(tokens(40), nil)
	f.directory.EXPECT().SetUserField(gomock.Any(), "sender", "TokenBalance", "40").Return(nil)
	f.ledger.EXPECT().TokenBalance(gomock.Any(), recipientAddr).Return(tokens(10), nil)
	f.directory.EXPECT().SetUserField(gomock.Any(), "recipient", "TokenBalance", "10").Return(nil)

	receipt, err := f.executor.Transfer(context.Background(), "sender", "recipient", 10)

	require.NoError(t, err)
	assert.Equal(t, "0xsent", receipt.TxHash)
}

// An unaffordable transfer must be rejected before anything reaches the
// ledger's write path.
func TestTransferInsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newTransferFixture(ctrl)
	f.expectSender(3)

	_, err := f.executor.Transfer(context.Background(), "sender", "recipient", 10)

	assert.ErrorIs(t, err, service.ErrInsufficientFunds)
}

func TestTransferUnknownRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newTransferFixture(ctrl)
	f.expectSender(50)
	f.directory.EXPECT().
		GetUserField(gomock.Any(), "recipient", "WalletAddress").
		Return("", false, nil)

	_, err := f.executor.Transfer(context.Background(), "sender", "recipient", 10)

	assert.ErrorIs(t, err, service.ErrRecipientNotFound)
}

func TestTransferSenderWithoutWallet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newTransferFixture(ctrl)
	f.directory.EXPECT().
		GetUserField(gomock.Any(), "sender", "WalletAddress").
		Return("", false, nil)

	_, err := f.executor.Transfer(context.Background(), "sender", "recipient", 10)

	assert.ErrorIs(t, err, service.ErrWalletNotFound)
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newTransferFixture(ctrl)

	for _, amount := range []float64{0, -5} {
		_, err := f.executor.Transfer(context.Background(), "sender", "recipient", amount)
		assert.ErrorIs(t, err, service.ErrValidation)
	}
}

func TestTransferLedgerRevert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newTransferFixture(ctrl)
	f.expectSender(50)
	f.directory.EXPECT().
		GetUserField(gomock.Any(), "recipient", "WalletAddress").
		Return(recipientAddr, true, nil)
	f.ledger.EXPECT().
		NativeBalance(gomock.Any(), senderAddr).
		Return(wei(1, 16), nil)
	f.ledger.EXPECT().
		Transfer(gomock.Any(), senderKey, recipientAddr, gomock.Any()).
		Return(nil, chain.ErrTxReverted)

	_, err := f.executor.Transfer(context.Background(), "sender", "recipient", 10)

	assert.ErrorIs(t, err, service.ErrLedgerRejected)
}
