package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"wallet-manager/internal/logger"
)

var (
	// ErrTxReverted indicates the transaction was mined but reverted.
	ErrTxReverted = errors.New("chain: transaction reverted")
	// ErrTxNotMined indicates the transaction was not mined before the
	// confirmation deadline. The transaction may still land later; callers
	// must not blindly resubmit.
	ErrTxNotMined = errors.New("chain: transaction not mined before deadline")
	// ErrInvalidAddress indicates a malformed hex address.
	ErrInvalidAddress = errors.New("chain: invalid address")
)

// Standard gas limit for a plain ether transfer.
const nativeTransferGas = 21000

// Gas limit for batchTransfer calls. Sized for rosters of a few hundred
// recipients; estimation is skipped because the roster is assembled before
// any recipient holds tokens, which makes estimates unreliable.
const batchTransferGasLimit = 3_000_000

// Receipt describes a mined transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
}

// Client wraps read and write access to the token contract and the native
// currency of one Ethereum-compatible network. Transactions signed by the
// operator key are serialized so its nonce sequence never interleaves.
type Client struct {
	eth            *ethclient.Client
	chainID        *big.Int
	token          common.Address
	tokenABI       abi.ABI
	operatorKey    *ecdsa.PrivateKey
	operatorAddr   common.Address
	confirmTimeout time.Duration

	// Guards nonce retrieval and submission for operator-signed
	// transactions. End-user wallets sign at most one transaction per
	// request, the operator account does not have that luxury.
	operatorMu sync.Mutex
}

// NewClient dials the RPC endpoint and prepares the token contract binding.
// operatorKeyHex is the operator's private key used for gas funding and
// reward distribution; it is held in memory only.
func NewClient(rpcURL string, chainID int64, tokenAddress, operatorKeyHex string, confirmTimeout time.Duration) (*Client, error) {
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("%w: token contract %q", ErrInvalidAddress, tokenAddress)
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}

	tokenABI, err := parseTokenABI()
	if err != nil {
		return nil, err
	}

	operatorKey, err := parsePrivateKey(operatorKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse operator key: %w", err)
	}

	c := &Client{
		eth:            eth,
		chainID:        big.NewInt(chainID),
		token:          common.HexToAddress(tokenAddress),
		tokenABI:       tokenABI,
		operatorKey:    operatorKey,
		operatorAddr:   crypto.PubkeyToAddress(operatorKey.PublicKey),
		confirmTimeout: confirmTimeout,
	}

	logger.Info("Connected to network RPC",
		zap.Int64("chain_id", chainID),
		zap.String("token_contract", c.token.Hex()),
		zap.String("operator_address", c.operatorAddr.Hex()),
	)
	return c, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// OperatorAddress returns the hex address of the operator account.
func (c *Client) OperatorAddress() string {
	return c.operatorAddr.Hex()
}

// TokenBalance returns the smallest-unit token balance of an address.
func (c *Client) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	input, err := packBalanceOf(c.tokenABI, addr)
	if err != nil {
		return nil, fmt.Errorf("encode balanceOf: %w", err)
	}

	output, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.token, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf(%s): %w", address, err)
	}
	return unpackBalanceOf(c.tokenABI, output)
}

// NativeBalance returns the wei balance of an address.
func (c *Client) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	addr, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	balance, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("native balance of %s: %w", address, err)
	}
	return balance, nil
}

// Transfer moves amount smallest units of the token from the wallet behind
// signerKeyHex to the recipient and waits for the transaction to be mined.
func (c *Client) Transfer(ctx context.Context, signerKeyHex, to string, amount *big.Int) (*Receipt, error) {
	toAddr, err := parseAddress(to)
	if err != nil {
		return nil, err
	}
	key, err := parsePrivateKey(signerKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}

	input, err := packTransfer(c.tokenABI, toAddr, amount)
	if err != nil {
		return nil, fmt.Errorf("encode transfer: %w", err)
	}

	from := crypto.PubkeyToAddress(key.PublicKey)
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &c.token, Data: input})
	if err != nil {
		return nil, fmt.Errorf("estimate transfer gas: %w", err)
	}

	return c.sendAndWait(ctx, key, c.token, nil, gasLimit, input)
}

// BatchTransfer sends one batchTransfer transaction moving tokens from the
// operator's distribution account to every recipient atomically.
func (c *Client) BatchTransfer(ctx context.Context, recipients []string, amounts []*big.Int) (*Receipt, error) {
	if len(recipients) == 0 || len(recipients) != len(amounts) {
		return nil, fmt.Errorf("chain: batch transfer needs matching non-empty recipient and amount lists, got %d/%d",
			len(recipients), len(amounts))
	}

	addrs := make([]common.Address, len(recipients))
	for i, r := range recipients {
		addr, err := parseAddress(r)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}

	input, err := packBatchTransfer(c.tokenABI, addrs, amounts)
	if err != nil {
		return nil, fmt.Errorf("encode batchTransfer: %w", err)
	}

	c.operatorMu.Lock()
	defer c.operatorMu.Unlock()
	return c.sendAndWait(ctx, c.operatorKey, c.token, nil, batchTransferGasLimit, input)
}

// SendNative sends amountWei of the native currency from the operator
// account to the recipient and waits for the transaction to be mined.
func (c *Client) SendNative(ctx context.Context, to string, amountWei *big.Int) (*Receipt, error) {
	toAddr, err := parseAddress(to)
	if err != nil {
		return nil, err
	}

	c.operatorMu.Lock()
	defer c.operatorMu.Unlock()
	return c.sendAndWait(ctx, c.operatorKey, toAddr, amountWei, nativeTransferGas, nil)
}

func (c *Client) sendAndWait(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, value *big.Int, gasLimit uint64, data []byte) (*Receipt, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("nonce for %s: %w", from.Hex(), err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	logger.Info("Transaction submitted",
		zap.String("tx_hash", signedTx.Hash().Hex()),
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
	)

	return c.waitMined(ctx, signedTx.Hash())
}

// waitMined polls for the transaction receipt with exponential backoff until
// the confirmation deadline.
func (c *Client) waitMined(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var receipt *types.Receipt

	poll := func() error {
		var err error
		receipt, err = c.eth.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxInterval = 5 * time.Second
	expBackoff.MaxElapsedTime = c.confirmTimeout

	if err := backoff.Retry(poll, backoff.WithContext(expBackoff, ctx)); err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTxNotMined, hash.Hex())
		}
		return nil, fmt.Errorf("wait for receipt %s: %w", hash.Hex(), err)
	}

	out := &Receipt{
		TxHash:      hash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return out, fmt.Errorf("%w: %s", ErrTxReverted, hash.Hex())
	}

	logger.Info("Transaction confirmed",
		zap.String("tx_hash", out.TxHash),
		zap.Uint64("block", out.BlockNumber),
		zap.Uint64("gas_used", out.GasUsed),
	)
	return out, nil
}

func parseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address), nil
}

func parsePrivateKey(keyHex string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
}
