package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ParseAddress parses a 0x-prefixed hex principal.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func ParseAddresses(list []string) ([]common.Address, error) {
	addrs := make([]common.Address, 0, len(list))
	for _, s := range list {
		addr, err := ParseAddress(s)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// ParseAmount parses a decimal amount. Empty input is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

// DuplicateAddress returns the first address that occurs twice in list.
func DuplicateAddress(list []common.Address) (common.Address, bool) {
	seen := make(map[common.Address]struct{}, len(list))
	for _, a := range list {
		if _, ok := seen[a]; ok {
			return a, true
		}
		seen[a] = struct{}{}
	}
	return common.Address{}, false
}

// RemoveAddress returns list without the first occurrence of addr.
func RemoveAddress(list []common.Address, addr common.Address) []common.Address {
	for i, a := range list {
		if a == addr {
			out := make([]common.Address, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}
