package domain

import (
	"time"

	"github.com/opencivics/agora/internal/ledger/token"
)

// GeneralDelegation is the sentinel delegation scope key used when a
// delegation is not bound to a specific proposal.
const GeneralDelegation = "general"

// QuizRecord captures one passed quiz and the reward it earned.
type QuizRecord struct {
	QuizID       string
	AcentsEarned token.Amount
	Timestamp    time.Time
}

// User is the per-citizen ledger record. Balances never go negative; the
// rule engine rejects any debit that would break that.
type User struct {
	Username string
	Acents   token.Amount
	Dcents   token.Amount

	// QuizzesPassed is ordered by pass time; a quiz id appears at most once.
	QuizzesPassed []QuizRecord
	// QuizzesFailed holds failed quiz ids with set semantics.
	QuizzesFailed []string

	// VotesSubmitted records proposal ids this user has voted on, keeping
	// the vote reward idempotent.
	VotesSubmitted map[string]bool

	// Delegations maps a proposal id (or GeneralDelegation) to the
	// delegate's username.
	Delegations map[string]string

	ReferredBy string
	Referrals  []string

	// PublicKey is the opaque crypto identity supplied at registration.
	// The ledger stores it and never validates key material.
	PublicKey string

	CreatedAt  time.Time
	LastActive time.Time
}

// HasPassedQuiz reports whether quizID is already in QuizzesPassed.
func (u *User) HasPassedQuiz(quizID string) bool {
	for _, rec := range u.QuizzesPassed {
		if rec.QuizID == quizID {
			return true
		}
	}
	return false
}

// HasFailedQuiz reports whether quizID is already recorded as failed.
func (u *User) HasFailedQuiz(quizID string) bool {
	for _, id := range u.QuizzesFailed {
		if id == quizID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to readers.
func (u *User) Clone() User {
	out := *u
	out.QuizzesPassed = append([]QuizRecord(nil), u.QuizzesPassed...)
	out.QuizzesFailed = append([]string(nil), u.QuizzesFailed...)
	out.Referrals = append([]string(nil), u.Referrals...)
	if u.VotesSubmitted != nil {
		out.VotesSubmitted = make(map[string]bool, len(u.VotesSubmitted))
		for k, v := range u.VotesSubmitted {
			out.VotesSubmitted[k] = v
		}
	}
	if u.Delegations != nil {
		out.Delegations = make(map[string]string, len(u.Delegations))
		for k, v := range u.Delegations {
			out.Delegations[k] = v
		}
	}
	return out
}
