// Package token provides fixed-point amounts for the dual-token economy.
//
// Balances and rewards are counted in milli-tokens so that fractional
// rewards (the 0.5 ACent delegated-vote split) stay exact across replay.
// Floating point is never used for balances.
package token

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which token a balance or transfer refers to.
type Kind string

const (
	// ACent is the competence token: earned by quizzes, votes and
	// referrals, spent to create proposals.
	ACent Kind = "acent"
	// DCent is the delegation/participation token: earned by failing
	// quizzes or voting on comments, spent to comment without passing the
	// proposal quiz.
	DCent Kind = "dcent"
)

// Valid reports whether the kind is a known token.
func (k Kind) Valid() bool {
	return k == ACent || k == DCent
}

// Amount is a token quantity in milli-tokens. It is a plain integer so
// arithmetic, comparison, and JSON encoding stay exact and byte-stable.
type Amount int64

const (
	// Milli is one thousandth of a token.
	Milli Amount = 1
	// Half is half a token, the delegated-vote reward split.
	Half Amount = 500
	// One is a whole token.
	One Amount = 1000
)

// FromTokens converts a whole-token count to an Amount.
func FromTokens(n int64) Amount {
	return Amount(n) * One
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a < 0
}

// String formats the amount in whole tokens, trimming trailing zeros,
// e.g. 1500 milli-tokens renders as "1.5".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / int64(One)
	frac := v % int64(One)
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	s := strings.TrimRight(fmt.Sprintf("%03d", frac), "0")
	return fmt.Sprintf("%s%d.%s", sign, whole, s)
}

// Parse reads an amount in whole tokens with up to three fractional digits.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}
	sign := int64(1)
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	f := int64(0)
	if frac != "" {
		if len(frac) > 3 {
			return 0, fmt.Errorf("amount %q has more than milli-token precision", s)
		}
		for len(frac) < 3 {
			frac += "0"
		}
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
	}
	return Amount(sign * (w*int64(One) + f)), nil
}
