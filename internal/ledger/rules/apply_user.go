package rules

import (
	"fmt"

	"github.com/opencivics/agora/internal/ledger/domain"
	"github.com/opencivics/agora/internal/ledger/event"
	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

func (s *State) stageUserRegister(evt event.Event, p event.UserRegisterPayload) (func() Change, error) {
	if _, ok := s.users[p.Username]; ok {
		return nil, apperrors.WithMetadata(apperrors.CodeDuplicateAction,
			fmt.Sprintf("user %q is already registered", p.Username),
			map[string]string{"username": p.Username})
	}

	// The referrer is resolved at stage time; an unknown referrer is not an
	// error, the bonus is simply skipped.
	referrer := s.users[p.ReferredBy]

	return func() Change {
		u := &domain.User{
			Username:       p.Username,
			VotesSubmitted: make(map[string]bool),
			Delegations:    make(map[string]string),
			PublicKey:      p.PublicKey,
			CreatedAt:      evt.Timestamp,
			LastActive:     evt.Timestamp,
		}
		ch := Change{Users: []string{p.Username}}
		if referrer != nil {
			u.ReferredBy = referrer.Username
			referrer.Acents += ReferralBonus
			referrer.Referrals = append(referrer.Referrals, p.Username)
			ch.Users = append(ch.Users, referrer.Username)
		}
		s.users[p.Username] = u
		return ch
	}, nil
}

func (s *State) stageQuizPass(evt event.Event, p event.QuizOutcomePayload) (func() Change, error) {
	u, ok := s.users[p.Username]
	if !ok {
		return nil, userNotFound(p.Username)
	}
	if u.HasPassedQuiz(p.QuizID) {
		return func() Change { return noopChange() }, nil
	}

	return func() Change {
		u.Acents += QuizPassReward
		u.QuizzesPassed = append(u.QuizzesPassed, domain.QuizRecord{
			QuizID:       p.QuizID,
			AcentsEarned: QuizPassReward,
			Timestamp:    evt.Timestamp,
		})
		u.LastActive = evt.Timestamp
		return Change{Users: []string{u.Username}}
	}, nil
}

func (s *State) stageQuizFail(evt event.Event, p event.QuizOutcomePayload) (func() Change, error) {
	u, ok := s.users[p.Username]
	if !ok {
		return nil, userNotFound(p.Username)
	}
	if u.HasFailedQuiz(p.QuizID) {
		return func() Change { return noopChange() }, nil
	}

	return func() Change {
		u.Dcents += QuizFailReward
		u.QuizzesFailed = append(u.QuizzesFailed, p.QuizID)
		u.LastActive = evt.Timestamp
		return Change{Users: []string{u.Username}}
	}, nil
}

func userNotFound(username string) error {
	return apperrors.WithMetadata(apperrors.CodeUserNotFound,
		fmt.Sprintf("user %q not found", username),
		map[string]string{"username": username})
}
