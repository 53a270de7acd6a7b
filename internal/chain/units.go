package chain

import (
	"math/big"
	"strconv"
)

// ToWei converts a human-readable token amount into its smallest-unit
// integer representation. The conversion truncates toward zero, so a reward
// pool split across recipients can never be over-allocated; the sub-unit
// remainder stays with the sender.
func ToWei(amount float64, decimals int) *big.Int {
	if amount <= 0 {
		return new(big.Int)
	}
	f := new(big.Float).SetPrec(236).SetFloat64(amount)
	f.Mul(f, new(big.Float).SetPrec(236).SetInt(pow10(decimals)))
	wei, _ := f.Int(nil)
	return wei
}

// FromWei converts a smallest-unit integer amount into a human-readable
// float64. Precision loss is acceptable here: the result feeds a cached
// display balance, never a ledger submission.
func FromWei(amount *big.Int, decimals int) float64 {
	if amount == nil || amount.Sign() == 0 {
		return 0
	}
	f := new(big.Float).SetPrec(236).SetInt(amount)
	f.Quo(f, new(big.Float).SetPrec(236).SetInt(pow10(decimals)))
	out, _ := f.Float64()
	return out
}

// FormatAmount renders a human-readable balance for storage in the user
// directory.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func pow10(exp int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
