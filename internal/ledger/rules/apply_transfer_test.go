package rules

import (
	"testing"

	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/ledger/token"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

func TestTransferMovesAcents(t *testing.T) {
	s := NewState()
	registerUser(t, s, "alice")
	registerUser(t, s, "bob")
	grantAcents(t, s, "alice", 5)

	applyEvent(t, s, testEvent(t, event.TypeAcentTransfer, "alice",
		event.TransferPayload{From: "alice", To: "bob", Amount: 2 * token.One}))

	if got := mustUser(t, s, "alice").Acents; got != 3*token.One {
		t.Fatalf("sender acents = %d, want %d", got, 3*token.One)
	}
	if got := mustUser(t, s, "bob").Acents; got != 2*token.One {
		t.Fatalf("recipient acents = %d, want %d", got, 2*token.One)
	}
}

func TestTransferMovesDcents(t *testing.T) {
	s := NewState()
	registerUser(t, s, "alice")
	registerUser(t, s, "bob")
	grantDcents(t, s, "alice", 2)

	applyEvent(t, s, testEvent(t, event.TypeDcentTransfer, "alice",
		event.TransferPayload{From: "alice", To: "bob", Amount: token.Half}))

	if got := mustUser(t, s, "alice").Dcents; got != 2*token.One-token.Half {
		t.Fatalf("sender dcents = %d, want %d", got, 2*token.One-token.Half)
	}
	if got := mustUser(t, s, "bob").Dcents; got != token.Half {
		t.Fatalf("recipient dcents = %d, want %d", got, token.Half)
	}
}

func TestTransferInsufficientBalanceLeavesBothUnchanged(t *testing.T) {
	s := NewState()
	registerUser(t, s, "x")
	registerUser(t, s, "y")
	grantAcents(t, s, "x", 3)

	_, err := s.Apply(testEvent(t, event.TypeAcentTransfer, "x",
		event.TransferPayload{From: "x", To: "y", Amount: 5 * token.One}))
	if code := apperrors.CodeOf(err); code != apperrors.CodeInsufficientBalance {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeInsufficientBalance)
	}

	if got := mustUser(t, s, "x").Acents; got != 3*token.One {
		t.Fatalf("sender acents = %d, want %d", got, 3*token.One)
	}
	if got := mustUser(t, s, "y").Acents; got != 0 {
		t.Fatalf("recipient acents = %d, want 0", got)
	}
}

func TestTransferUnknownParty(t *testing.T) {
	s := NewState()
	registerUser(t, s, "alice")
	grantAcents(t, s, "alice", 1)

	_, err := s.Apply(testEvent(t, event.TypeAcentTransfer, "alice",
		event.TransferPayload{From: "alice", To: "ghost", Amount: token.One}))
	if code := apperrors.CodeOf(err); code != apperrors.CodeUserNotFound {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeUserNotFound)
	}
}

func TestTransferKeepsBalancesNonNegative(t *testing.T) {
	s := NewState()
	registerUser(t, s, "alice")
	registerUser(t, s, "bob")
	grantAcents(t, s, "alice", 1)

	// Exact balance drains to zero, never below.
	applyEvent(t, s, testEvent(t, event.TypeAcentTransfer, "alice",
		event.TransferPayload{From: "alice", To: "bob", Amount: token.One}))
	if got := mustUser(t, s, "alice").Acents; got != 0 {
		t.Fatalf("sender acents = %d, want 0", got)
	}

	_, err := s.Apply(testEvent(t, event.TypeAcentTransfer, "alice",
		event.TransferPayload{From: "alice", To: "bob", Amount: token.Milli}))
	if code := apperrors.CodeOf(err); code != apperrors.CodeInsufficientBalance {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeInsufficientBalance)
	}
	if got := mustUser(t, s, "alice").Acents; got.IsNegative() {
		t.Fatalf("sender acents = %d, went negative", got)
	}
}
