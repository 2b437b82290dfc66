package event

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/opencivics/agora/internal/platform/errors"
)

// Payload is implemented by every typed event payload.
type Payload interface {
	Validate() error
}

// Decode resolves the envelope's payload into its typed form. The switch is
// exhaustive over the closed type enumeration; an unrecognized type is a
// fatal schema mismatch, never skipped.
func Decode(evt Event) (Payload, error) {
	switch evt.Type {
	case TypeUserRegister:
		return decodeInto[UserRegisterPayload](evt)
	case TypeQuizPass, TypeQuizFail:
		return decodeInto[QuizOutcomePayload](evt)
	case TypeProposalCreate:
		return decodeInto[ProposalCreatePayload](evt)
	case TypeProposalVote:
		return decodeInto[ProposalVotePayload](evt)
	case TypeProposalUpvote:
		return decodeInto[ProposalUpvotePayload](evt)
	case TypeCommentCreate:
		return decodeInto[CommentCreatePayload](evt)
	case TypeCommentVote:
		return decodeInto[CommentVotePayload](evt)
	case TypeCommentIntegrate:
		return decodeInto[CommentIntegratePayload](evt)
	case TypeDelegationSet:
		return decodeInto[DelegationSetPayload](evt)
	case TypeDelegationRevoke:
		return decodeInto[DelegationRevokePayload](evt)
	case TypeAcentTransfer, TypeDcentTransfer:
		return decodeInto[TransferPayload](evt)
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeUnknownEventType,
			fmt.Sprintf("unknown event type %q", evt.Type),
			map[string]string{"event_id": evt.ID})
	}
}

func decodeInto[P Payload](evt Event) (Payload, error) {
	var p P
	if err := json.Unmarshal(evt.PayloadJSON, &p); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation,
			fmt.Sprintf("decode %s payload", evt.Type), err)
	}
	return p, nil
}

// ValidateForAppend checks an event before it may enter the journal:
// the type must belong to the closed enumeration and the payload must decode
// and carry every required field. Validation happens before append, never
// after.
func ValidateForAppend(evt Event) error {
	if !evt.Type.Valid() {
		return apperrors.WithMetadata(apperrors.CodeUnknownEventType,
			fmt.Sprintf("unknown event type %q", evt.Type),
			map[string]string{"event_id": evt.ID})
	}
	payload, err := Decode(evt)
	if err != nil {
		return err
	}
	return payload.Validate()
}
