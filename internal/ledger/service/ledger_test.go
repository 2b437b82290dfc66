package service

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	"github.com/opencivics/agora/internal/ledger/rules"
	"github.com/opencivics/agora/internal/ledger/token"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
	"github.com/opencivics/agora/internal/storage/memory"
)

func newTestLedger(t *testing.T) (*Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	ledger := openTestLedger(t, store)
	return ledger, store
}

func openTestLedger(t *testing.T, store *memory.Store) *Ledger {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var idCounter int
	ledger, err := Open(context.Background(), store,
		WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
		WithIDGenerator(func() (string, error) {
			idCounter++
			return fmt.Sprintf("id-%04d", idCounter), nil
		}),
	)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	return ledger
}

// fundAcents earns a user ACents through distinct quiz passes.
func fundAcents(t *testing.T, ledger *Ledger, username string, tokens int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < tokens; i++ {
		_, _, err := ledger.RecordQuizOutcome(ctx, QuizOutcomeInput{
			Username: username,
			QuizID:   fmt.Sprintf("fund-%s-%d", username, i),
			Passed:   true,
		})
		if err != nil {
			t.Fatalf("fund %s: %v", username, err)
		}
	}
}

func TestRegisterUserAndQuery(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	created, evt, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "alice", PublicKey: "pk"})
	if err != nil {
		t.Fatalf("RegisterUser returned error: %v", err)
	}
	if evt.Type != event.TypeUserRegister || evt.Seq != 1 {
		t.Fatalf("event = %s seq %d, want user.register seq 1", evt.Type, evt.Seq)
	}
	if created.Username != "alice" || created.Acents != 0 {
		t.Fatalf("created user = %+v", created)
	}

	got, err := ledger.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if got.PublicKey != "pk" {
		t.Fatalf("public key = %q, want %q", got.PublicKey, "pk")
	}
}

func TestReferralScenario(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "b"}); err != nil {
		t.Fatalf("register referrer: %v", err)
	}
	a, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "a", ReferredBy: "b"})
	if err != nil {
		t.Fatalf("register referred: %v", err)
	}
	if a.Acents != 0 {
		t.Fatalf("referred acents = %d, want 0", a.Acents)
	}

	b, err := ledger.GetUser(ctx, "b")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if b.Acents != token.One {
		t.Fatalf("referrer acents = %d, want %d", b.Acents, token.One)
	}
}

func TestProposalLifecycle(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t)

	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "alice"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	fundAcents(t, ledger, "alice", 3)

	p, evt, err := ledger.CreateProposal(ctx, CreateProposalInput{
		Title:   "Cleaner parks",
		Content: "Fund park cleanup crews.",
		Author:  "alice",
		Scope:   domain.ScopeNeighborhood,
	})
	if err != nil {
		t.Fatalf("CreateProposal returned error: %v", err)
	}
	if evt.Type != event.TypeProposalCreate {
		t.Fatalf("event type = %s, want proposal.create", evt.Type)
	}
	if p.Author != "alice" || p.Scope != domain.ScopeNeighborhood {
		t.Fatalf("proposal = %+v", p)
	}

	author, err := ledger.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if author.Acents != 0 {
		t.Fatalf("author acents = %d, want 0 after paying cost", author.Acents)
	}

	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "bob"}); err != nil {
		t.Fatalf("register voter: %v", err)
	}
	voted, _, err := ledger.VoteOnProposal(ctx, VoteInput{Username: "bob", ProposalID: p.ID, Vote: domain.VoteFor})
	if err != nil {
		t.Fatalf("VoteOnProposal returned error: %v", err)
	}
	if voted.Votes.For != 1 {
		t.Fatalf("tally for = %d, want 1", voted.Votes.For)
	}

	upvoted, _, err := ledger.UpvoteProposal(ctx, "bob", p.ID)
	if err != nil {
		t.Fatalf("UpvoteProposal returned error: %v", err)
	}
	if upvoted.Upvotes != 1 || upvoted.AcentsBalance != token.One {
		t.Fatalf("upvotes/escrow = %d/%d, want 1/%d", upvoted.Upvotes, upvoted.AcentsBalance, token.One)
	}

	latest, err := store.LatestSeq(ctx)
	if err != nil {
		t.Fatalf("LatestSeq returned error: %v", err)
	}
	// register + 3 funding passes + create + register + vote + upvote.
	if latest != 8 {
		t.Fatalf("journal length = %d, want 8", latest)
	}
}

func TestCreateProposalInsufficientBalanceAppendsNothing(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t)

	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "alice"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	before, err := store.LatestSeq(ctx)
	if err != nil {
		t.Fatalf("LatestSeq returned error: %v", err)
	}

	_, _, err = ledger.CreateProposal(ctx, CreateProposalInput{
		Title: "T", Content: "C", Author: "alice", Scope: domain.ScopeCity,
	})
	if code := apperrors.CodeOf(err); code != apperrors.CodeInsufficientBalance {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeInsufficientBalance)
	}

	after, err := store.LatestSeq(ctx)
	if err != nil {
		t.Fatalf("LatestSeq returned error: %v", err)
	}
	if after != before {
		t.Fatalf("journal grew from %d to %d on failed fold", before, after)
	}
}

func TestDuplicateVoteIsLoggedNoop(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t)

	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "alice"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	fundAcents(t, ledger, "alice", 3)
	p, _, err := ledger.CreateProposal(ctx, CreateProposalInput{
		Title: "T", Content: "C", Author: "alice", Scope: domain.ScopeCity,
	})
	if err != nil {
		t.Fatalf("CreateProposal returned error: %v", err)
	}
	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "bob"}); err != nil {
		t.Fatalf("register voter: %v", err)
	}
	if _, _, err := ledger.VoteOnProposal(ctx, VoteInput{Username: "bob", ProposalID: p.ID, Vote: domain.VoteFor}); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	before, _ := store.LatestSeq(ctx)

	again, _, err := ledger.VoteOnProposal(ctx, VoteInput{Username: "bob", ProposalID: p.ID, Vote: domain.VoteAgainst})
	if err != nil {
		t.Fatalf("repeat vote returned error: %v", err)
	}
	if again.Votes.For != 1 || again.Votes.Against != 0 {
		t.Fatalf("tally = %+v, want unchanged", again.Votes)
	}

	voter, err := ledger.GetUser(ctx, "bob")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if voter.Acents != rules.VoteReward {
		t.Fatalf("voter acents = %d, want single reward %d", voter.Acents, rules.VoteReward)
	}

	// The duplicate event still enters the journal.
	after, _ := store.LatestSeq(ctx)
	if after != before+1 {
		t.Fatalf("journal length = %d, want %d", after, before+1)
	}
}

func TestDelegatedVoteRequiresDelegation(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	for _, name := range []string{"alice", "bob", "carol"} {
		if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	fundAcents(t, ledger, "alice", 3)
	p, _, err := ledger.CreateProposal(ctx, CreateProposalInput{
		Title: "T", Content: "C", Author: "alice", Scope: domain.ScopeCity,
	})
	if err != nil {
		t.Fatalf("CreateProposal returned error: %v", err)
	}

	_, _, err = ledger.VoteOnProposal(ctx, VoteInput{
		Username: "bob", ProposalID: p.ID, Vote: domain.VoteFor, Delegator: "carol",
	})
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotAuthorized {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeNotAuthorized)
	}

	if _, _, err := ledger.SetDelegation(ctx, "carol", "bob", ""); err != nil {
		t.Fatalf("SetDelegation returned error: %v", err)
	}
	if _, _, err := ledger.VoteOnProposal(ctx, VoteInput{
		Username: "bob", ProposalID: p.ID, Vote: domain.VoteFor, Delegator: "carol",
	}); err != nil {
		t.Fatalf("delegated vote returned error: %v", err)
	}

	voter, _ := ledger.GetUser(ctx, "bob")
	delegator, _ := ledger.GetUser(ctx, "carol")
	if voter.Acents != rules.DelegatedVoteSplit || delegator.Acents != rules.DelegatedVoteSplit {
		t.Fatalf("split = %d/%d, want %d each", voter.Acents, delegator.Acents, rules.DelegatedVoteSplit)
	}
}

func TestCommentCostWaivedByProposalQuiz(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "alice"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	fundAcents(t, ledger, "alice", 3)
	p, _, err := ledger.CreateProposal(ctx, CreateProposalInput{
		Title: "T", Content: "C", Author: "alice", Scope: domain.ScopeCity,
	})
	if err != nil {
		t.Fatalf("CreateProposal returned error: %v", err)
	}

	// bob has not passed the proposal quiz and holds no DCents.
	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "bob"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err = ledger.CreateComment(ctx, CreateCommentInput{
		ProposalID: p.ID, Author: "bob", Content: "thoughts",
	})
	if code := apperrors.CodeOf(err); code != apperrors.CodeInsufficientBalance {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeInsufficientBalance)
	}

	// Passing the proposal quiz waives the fee.
	if _, _, err := ledger.RecordQuizOutcome(ctx, QuizOutcomeInput{
		Username: "bob", QuizID: ProposalQuizID(p.ID), Passed: true,
	}); err != nil {
		t.Fatalf("RecordQuizOutcome returned error: %v", err)
	}
	c, _, err := ledger.CreateComment(ctx, CreateCommentInput{
		ProposalID: p.ID, Author: "bob", Content: "thoughts",
	})
	if err != nil {
		t.Fatalf("CreateComment returned error: %v", err)
	}
	if c.Author != "bob" || c.ProposalID != p.ID {
		t.Fatalf("comment = %+v", c)
	}

	comments, err := ledger.GetComments(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetComments returned error: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(comments))
	}
}

func TestTransferScenario(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	for _, name := range []string{"x", "y"} {
		if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	fundAcents(t, ledger, "x", 3)

	_, _, err := ledger.TransferACents(ctx, TransferInput{From: "x", To: "y", Amount: 5 * token.One})
	if code := apperrors.CodeOf(err); code != apperrors.CodeInsufficientBalance {
		t.Fatalf("error code = %q, want %q", code, apperrors.CodeInsufficientBalance)
	}

	x, _ := ledger.GetUser(ctx, "x")
	y, _ := ledger.GetUser(ctx, "y")
	if x.Acents != 3*token.One || y.Acents != 0 {
		t.Fatalf("balances = %d/%d, want unchanged 3/0 tokens", x.Acents, y.Acents)
	}

	sender, _, err := ledger.TransferACents(ctx, TransferInput{From: "x", To: "y", Amount: token.One})
	if err != nil {
		t.Fatalf("TransferACents returned error: %v", err)
	}
	if sender.Acents != 2*token.One {
		t.Fatalf("sender acents = %d, want %d", sender.Acents, 2*token.One)
	}
}

func TestRehydrationMatchesLiveState(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t)

	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "alice"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	fundAcents(t, ledger, "alice", 3)
	p, _, err := ledger.CreateProposal(ctx, CreateProposalInput{
		Title: "T", Content: "C", Author: "alice", Scope: domain.ScopeCity,
	})
	if err != nil {
		t.Fatalf("CreateProposal returned error: %v", err)
	}
	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "bob"}); err != nil {
		t.Fatalf("register voter: %v", err)
	}
	if _, _, err := ledger.VoteOnProposal(ctx, VoteInput{Username: "bob", ProposalID: p.ID, Vote: domain.VoteFor}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	reopened := openTestLedger(t, store)

	for _, name := range []string{"alice", "bob"} {
		live, err := ledger.GetUser(ctx, name)
		if err != nil {
			t.Fatalf("live GetUser %s: %v", name, err)
		}
		replayed, err := reopened.GetUser(ctx, name)
		if err != nil {
			t.Fatalf("replayed GetUser %s: %v", name, err)
		}
		if !reflect.DeepEqual(live, replayed) {
			t.Fatalf("user %s diverged after replay:\nlive:     %+v\nreplayed: %+v", name, live, replayed)
		}
	}

	liveP, _ := ledger.GetProposal(ctx, p.ID)
	replayedP, err := reopened.GetProposal(ctx, p.ID)
	if err != nil {
		t.Fatalf("replayed GetProposal: %v", err)
	}
	if !reflect.DeepEqual(liveP, replayedP) {
		t.Fatalf("proposal diverged after replay:\nlive:     %+v\nreplayed: %+v", liveP, replayedP)
	}
}

func TestSubscribeReceivesAppliedEvents(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	ch, cancel := ledger.Subscribe(4)
	defer cancel()

	if _, _, err := ledger.RegisterUser(ctx, RegisterUserInput{Username: "alice"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Type != event.TypeUserRegister {
			t.Fatalf("event type = %s, want user.register", evt.Type)
		}
	default:
		t.Fatal("no event delivered to subscriber")
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after cancel")
	}
}

func TestSeedFoundingProposalIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger, store := newTestLedger(t)

	p, err := ledger.SeedFoundingProposal(ctx)
	if err != nil {
		t.Fatalf("SeedFoundingProposal returned error: %v", err)
	}
	if p.ID != FoundingProposalID || !p.Protected || !p.Founding {
		t.Fatalf("founding proposal = %+v", p)
	}
	if p.Scope != domain.ScopeWorld {
		t.Fatalf("scope = %q, want %q", p.Scope, domain.ScopeWorld)
	}

	before, _ := store.LatestSeq(ctx)
	again, err := ledger.SeedFoundingProposal(ctx)
	if err != nil {
		t.Fatalf("second seed returned error: %v", err)
	}
	if again.ID != p.ID {
		t.Fatalf("second seed id = %q, want %q", again.ID, p.ID)
	}
	after, _ := store.LatestSeq(ctx)
	if after != before {
		t.Fatalf("journal grew from %d to %d on repeat seed", before, after)
	}

	// World proposals are visible at every scope.
	visible, err := ledger.GetProposalsByScope(ctx, domain.ScopeNeighborhood)
	if err != nil {
		t.Fatalf("GetProposalsByScope returned error: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != FoundingProposalID {
		t.Fatalf("visible proposals = %v", visible)
	}
}
