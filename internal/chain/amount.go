package chain

import (
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil"

	satserr "github.com/mrz1836/satsend/pkg/errors"
)

// ParseAmount parses a decimal BTC amount string to satoshis.
// For example, "1.5" returns 150000000.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseAmount(amount string) (btcutil.Amount, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, satserr.ErrAmountRequired
	}

	// Check for negative amounts
	if strings.HasPrefix(amount, "-") {
		return 0, satserr.ErrInvalidAmount
	}

	// Split by decimal point
	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return 0, satserr.ErrInvalidAmount
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	// Validate integer part
	if intPart == "" {
		intPart = "0"
	}
	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return 0, satserr.ErrInvalidAmount
	}

	// Scale integer part to satoshis
	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	// Handle decimal part
	if decPart != "" {
		// Validate decimal characters
		for _, c := range decPart {
			if c < '0' || c > '9' {
				return 0, satserr.ErrInvalidAmount
			}
		}

		// Pad or truncate decimal part
		for len(decPart) < Decimals {
			decPart += "0"
		}
		decPart = decPart[:Decimals]

		decVal, ok := new(big.Int).SetString(decPart, 10)
		if !ok {
			return 0, satserr.ErrInvalidAmount
		}

		result = result.Add(result, decVal)
	}

	if !result.IsInt64() {
		return 0, satserr.ErrInvalidAmount
	}

	return btcutil.Amount(result.Int64()), nil
}

// FormatAmount converts satoshis to a human-readable BTC string.
// Trailing zeros after the decimal point are removed.
// For example, 150000000 returns "1.5".
func FormatAmount(amount btcutil.Amount) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := new(big.Int).SetInt64(int64(amount)).String()

	// Pad with leading zeros if necessary
	for len(str) <= Decimals {
		str = "0" + str
	}

	// Insert decimal point
	decimalPos := len(str) - Decimals
	result := str[:decimalPos] + "." + str[decimalPos:]

	// Remove unnecessary trailing zeros
	for len(result) > 1 && result[len(result)-1] == '0' && result[len(result)-2] != '.' {
		result = result[:len(result)-1]
	}
	result = strings.TrimSuffix(result, ".0")

	if negative {
		return "-" + result
	}
	return result
}
