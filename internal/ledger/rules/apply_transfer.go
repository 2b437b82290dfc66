package rules

import (
	"fmt"

	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/ledger/token"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

func (s *State) stageTransfer(evt event.Event, p event.TransferPayload, kind token.Kind) (func() Change, error) {
	from, ok := s.users[p.From]
	if !ok {
		return nil, userNotFound(p.From)
	}
	to, ok := s.users[p.To]
	if !ok {
		return nil, userNotFound(p.To)
	}

	var balance token.Amount
	switch kind {
	case token.ACent:
		balance = from.Acents
	case token.DCent:
		balance = from.Dcents
	default:
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("unknown token kind %q", kind))
	}
	if balance < p.Amount {
		return nil, insufficientBalance(string(kind), from.Username, balance, p.Amount)
	}

	return func() Change {
		// Debit and credit land together or not at all.
		switch kind {
		case token.ACent:
			from.Acents -= p.Amount
			to.Acents += p.Amount
		case token.DCent:
			from.Dcents -= p.Amount
			to.Dcents += p.Amount
		}
		from.LastActive = evt.Timestamp
		return Change{Users: []string{from.Username, to.Username}}
	}, nil
}

func insufficientBalance(kind, username string, have, need token.Amount) error {
	return apperrors.WithMetadata(apperrors.CodeInsufficientBalance,
		fmt.Sprintf("user %q has %s %s, needs %s", username, have, kind, need),
		map[string]string{
			"username": username,
			"token":    kind,
			"have":     have.String(),
			"need":     need.String(),
		})
}
