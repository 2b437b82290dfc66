package rules

import (
	"errors"
	"testing"

	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/ledger/token"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

func TestRegisterCreatesZeroBalanceUser(t *testing.T) {
	s := NewState()
	ch := applyEvent(t, s, testEvent(t, event.TypeUserRegister, "alice",
		event.UserRegisterPayload{Username: "alice", PublicKey: "pk-alice"}))

	u := mustUser(t, s, "alice")
	if u.Acents != 0 || u.Dcents != 0 {
		t.Fatalf("balances = %d/%d, want 0/0", u.Acents, u.Dcents)
	}
	if u.PublicKey != "pk-alice" {
		t.Fatalf("public key = %q, want %q", u.PublicKey, "pk-alice")
	}
	if !u.CreatedAt.Equal(testTime) {
		t.Fatalf("created at = %v, want %v", u.CreatedAt, testTime)
	}
	if len(ch.Users) != 1 || ch.Users[0] != "alice" {
		t.Fatalf("change users = %v, want [alice]", ch.Users)
	}
}

func TestRegisterReferralBonus(t *testing.T) {
	s := NewState()
	registerUser(t, s, "bob")

	applyEvent(t, s, testEvent(t, event.TypeUserRegister, "alice",
		event.UserRegisterPayload{Username: "alice", ReferredBy: "bob"}))

	referrer := mustUser(t, s, "bob")
	if referrer.Acents != ReferralBonus {
		t.Fatalf("referrer acents = %d, want %d", referrer.Acents, ReferralBonus)
	}
	if len(referrer.Referrals) != 1 || referrer.Referrals[0] != "alice" {
		t.Fatalf("referrals = %v, want [alice]", referrer.Referrals)
	}

	referred := mustUser(t, s, "alice")
	if referred.Acents != 0 {
		t.Fatalf("referred acents = %d, want 0", referred.Acents)
	}
	if referred.ReferredBy != "bob" {
		t.Fatalf("referred by = %q, want %q", referred.ReferredBy, "bob")
	}
}

func TestRegisterUnknownReferrerSkipsBonus(t *testing.T) {
	s := NewState()
	applyEvent(t, s, testEvent(t, event.TypeUserRegister, "alice",
		event.UserRegisterPayload{Username: "alice", ReferredBy: "ghost"}))

	u := mustUser(t, s, "alice")
	if u.ReferredBy != "" {
		t.Fatalf("referred by = %q, want empty", u.ReferredBy)
	}
}

func TestRegisterDuplicateRejected(t *testing.T) {
	s := NewState()
	registerUser(t, s, "alice")

	_, err := s.Apply(testEvent(t, event.TypeUserRegister, "alice",
		event.UserRegisterPayload{Username: "alice"}))
	if err == nil {
		t.Fatal("expected error for duplicate registration")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeDuplicateAction {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeDuplicateAction)
	}
}

func TestQuizPassRewardIsIdempotent(t *testing.T) {
	s := NewState()
	registerUser(t, s, "alice")

	applyEvent(t, s, testEvent(t, event.TypeQuizPass, "alice",
		event.QuizOutcomePayload{Username: "alice", QuizID: "quiz-1"}))
	u := mustUser(t, s, "alice")
	if u.Acents != QuizPassReward {
		t.Fatalf("acents after pass = %d, want %d", u.Acents, QuizPassReward)
	}
	if len(u.QuizzesPassed) != 1 || u.QuizzesPassed[0].QuizID != "quiz-1" {
		t.Fatalf("quizzes passed = %v", u.QuizzesPassed)
	}
	if u.QuizzesPassed[0].AcentsEarned != QuizPassReward {
		t.Fatalf("acents earned = %d, want %d", u.QuizzesPassed[0].AcentsEarned, QuizPassReward)
	}

	ch := applyEvent(t, s, testEvent(t, event.TypeQuizPass, "alice",
		event.QuizOutcomePayload{Username: "alice", QuizID: "quiz-1"}))
	if !ch.Noop || !ch.Duplicate {
		t.Fatalf("repeat pass change = %+v, want duplicate noop", ch)
	}
	u = mustUser(t, s, "alice")
	if u.Acents != QuizPassReward {
		t.Fatalf("acents after repeat pass = %d, want %d", u.Acents, QuizPassReward)
	}
	if len(u.QuizzesPassed) != 1 {
		t.Fatalf("quizzes passed length = %d, want 1", len(u.QuizzesPassed))
	}
}

func TestQuizFailGrantsDcent(t *testing.T) {
	s := NewState()
	registerUser(t, s, "alice")

	applyEvent(t, s, testEvent(t, event.TypeQuizFail, "alice",
		event.QuizOutcomePayload{Username: "alice", QuizID: "quiz-1"}))
	u := mustUser(t, s, "alice")
	if u.Dcents != QuizFailReward {
		t.Fatalf("dcents = %d, want %d", u.Dcents, QuizFailReward)
	}
	if !u.HasFailedQuiz("quiz-1") {
		t.Fatal("quiz-1 not recorded as failed")
	}

	ch := applyEvent(t, s, testEvent(t, event.TypeQuizFail, "alice",
		event.QuizOutcomePayload{Username: "alice", QuizID: "quiz-1"}))
	if !ch.Noop {
		t.Fatalf("repeat fail change = %+v, want noop", ch)
	}
	if got := mustUser(t, s, "alice").Dcents; got != token.One {
		t.Fatalf("dcents after repeat fail = %d, want %d", got, token.One)
	}
}

func TestQuizOutcomeUnknownUser(t *testing.T) {
	s := NewState()
	_, err := s.Apply(testEvent(t, event.TypeQuizPass, "ghost",
		event.QuizOutcomePayload{Username: "ghost", QuizID: "quiz-1"}))
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeUserNotFound {
		t.Fatalf("error = %v, want code %q", err, apperrors.CodeUserNotFound)
	}
}
