package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Token contract interface. batchTransfer is the contract's multi-recipient
// extension used for reward distribution; the rest is standard ERC-20.
const erc20ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "recipient", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "recipients", "type": "address[]"},
			{"name": "amounts", "type": "uint256[]"}
		],
		"name": "batchTransfer",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

func parseTokenABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse token ABI: %w", err)
	}
	return parsed, nil
}

func packBalanceOf(tokenABI abi.ABI, account common.Address) ([]byte, error) {
	return tokenABI.Pack("balanceOf", account)
}

func unpackBalanceOf(tokenABI abi.ABI, output []byte) (*big.Int, error) {
	results, err := tokenABI.Unpack("balanceOf", output)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf result: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return balance, nil
}

func packTransfer(tokenABI abi.ABI, to common.Address, amount *big.Int) ([]byte, error) {
	return tokenABI.Pack("transfer", to, amount)
}

func packBatchTransfer(tokenABI abi.ABI, recipients []common.Address, amounts []*big.Int) ([]byte, error) {
	return tokenABI.Pack("batchTransfer", recipients, amounts)
}
