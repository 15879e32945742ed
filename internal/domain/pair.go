package domain

import (
	"fmt"
	"strings"
)

// Pair represents a trading pair in BASE-QUOTE format
type Pair string

const (
	PairBTCUSD  Pair = "BTC-USD"
	PairBTCUSDC Pair = "BTC-USDC"
	PairETHUSD  Pair = "ETH-USD"
	PairETHUSDC Pair = "ETH-USDC"
)

// Pairs returns all supported trading pairs
func Pairs() []Pair {
	return []Pair{PairBTCUSD, PairBTCUSDC, PairETHUSD, PairETHUSDC}
}

// ParsePair validates a string against the supported pairs
func ParsePair(s string) (Pair, error) {
	for _, p := range Pairs() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown pair %q", ErrInvalidInput, s)
}

// Base returns the base currency of the pair (BTC in BTC-USD)
func (p Pair) Base() string {
	base, _, _ := strings.Cut(string(p), "-")
	return base
}

// Quote returns the quote currency of the pair (USD in BTC-USD)
func (p Pair) Quote() string {
	_, quote, _ := strings.Cut(string(p), "-")
	return quote
}

func (p Pair) String() string {
	return string(p)
}

// Side represents the direction of an order
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide validates a string against the known sides
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(s)) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("%w: unknown side %q", ErrInvalidInput, s)
}

func (s Side) String() string {
	return string(s)
}
