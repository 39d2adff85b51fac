package neosocial

import (
	"context"

	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
	"github.com/saulfrancisco-ruizacevedo/go-neosocial/session"
)

// InviteScope binds the join-request protocol to one kind of group.
//
// A user moves NONE -> REQUESTED through RequestJoin, and the owner resolves
// the request with AcceptOrDeny, to JOINED or back to NONE.
type InviteScope struct {
	// Request is the interaction holding the pending request.
	Request Interaction
	// Join is the membership interaction entered on acceptance.
	Join Interaction
}

var (
	// CommunityInvites is the request protocol of communities.
	CommunityInvites = InviteScope{Request: RequestJoinCommunity, Join: JoinCommunity}
	// DiscussionInvites is the request protocol of community discussions.
	DiscussionInvites = InviteScope{Request: RequestJoinDiscussion, Join: JoinDiscussion}
)

// ErrAlreadyJoined is returned when a member asks to join again.
var ErrAlreadyJoined = &ValidationError{Field: "targetId", Reason: "is already joined"}

// RequestJoin records that the actor of ctx asks to join the target and
// notifies its owner. Members of the target cannot request again.
func (m *Machine) RequestJoin(ctx context.Context, scope InviteScope, targetID string) error {
	return m.apply(ctx, scope.Request, targetID, Enter, func(ctx context.Context, tx WriteTx, actor session.Actor, target EntityRef) error {
		joined, err := tx.CountEdges(ctx, EntityRef{Label: LabelUser, ID: actor.ID}, scope.Join.Forward, target)
		if err != nil {
			return err
		}
		if joined > 0 {
			return ErrAlreadyJoined
		}
		return nil
	})
}

// CancelRequest withdraws the actor's pending request, if any.
func (m *Machine) CancelRequest(ctx context.Context, scope InviteScope, targetID string) error {
	return m.Exit(ctx, scope.Request, targetID)
}

// AcceptOrDeny resolves requesterID's pending request to join the target.
// The actor of ctx must own the target.
//
// On accept the requester enters the Join interaction, which notifies the
// owner, and receives a request_accepted notification. On deny the requester
// only receives request_denied. Either way the request edge and its
// notification are removed. Everything runs in one transaction.
func (m *Machine) AcceptOrDeny(ctx context.Context, scope InviteScope, targetID, requesterID string, accept bool) error {
	owner, err := session.ActorFrom(ctx)
	if err != nil {
		return err
	}
	for _, kind := range []Interaction{scope.Request, scope.Join} {
		if err := kind.Validate(); err != nil {
			return err
		}
	}
	if targetID == "" {
		return &ValidationError{Field: "targetId", Reason: "is required"}
	}
	if requesterID == "" {
		return &ValidationError{Field: "requesterId", Reason: "is required"}
	}

	err = m.writer.Write(ctx, func(ctx context.Context, tx WriteTx) error {
		target := EntityRef{Label: scope.Request.TargetLabel, ID: targetID}
		p, found, err := tx.Resolve(ctx, requesterID, target, scope.Request.Owner)
		if err != nil {
			return err
		}
		if !found {
			return &NotFoundError{Label: scope.Request.TargetLabel, ID: targetID}
		}
		if p.OwnerID != owner.ID {
			return ErrForbidden
		}

		requester := session.Actor{ID: requesterID, Username: p.ActorName}
		pending, err := tx.CountEdges(ctx, EntityRef{Label: LabelUser, ID: requesterID}, scope.Request.Forward, target)
		if err != nil {
			return err
		}
		if pending == 0 {
			return &NotFoundError{Label: "join request", ID: requesterID}
		}

		outcome := models.NotificationRequestDenied
		message := "Your request to join {target} was declined"
		if accept {
			if err := m.enter(ctx, tx, requester, scope.Join, target, p); err != nil {
				return err
			}
			outcome = models.NotificationRequestAccepted
			message = "Your request to join {target} was accepted"
		}

		ownerName := displayName("", owner)
		if err := m.notify(ctx, tx, NotificationKey{
			OwnerID:         requesterID,
			RelatedEntityID: targetID,
			Type:            outcome,
		}, owner.ID,
			scope.Join.render(message, owner.ID, ownerName, targetID, p.TargetName),
			scope.Join.render(scope.Join.LinkTemplate, owner.ID, ownerName, targetID, p.TargetName),
			m.now(),
		); err != nil {
			return err
		}

		return m.exit(ctx, tx, requester, scope.Request, target, p)
	})
	if err != nil {
		m.logFailure(err, scope.Request, Exit, requesterID, targetID)
		return err
	}

	m.metrics.transition(scope.Request.Name, Exit)
	if accept {
		m.metrics.transition(scope.Join.Name, Enter)
	}
	m.logger.Debug("join request resolved",
		zap.String("scope", scope.Request.Name),
		zap.String("owner", owner.ID),
		zap.String("requester", requesterID),
		zap.String("target", targetID),
		zap.Bool("accepted", accept),
	)
	return nil
}
