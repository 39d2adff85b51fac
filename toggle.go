package neosocial

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
	"github.com/saulfrancisco-ruizacevedo/go-neosocial/session"
)

// Transition is the requested change of an interaction's state.
type Transition int

const (
	// Enter moves an interaction from ABSENT to PRESENT.
	Enter Transition = iota
	// Exit moves an interaction from PRESENT to ABSENT.
	Exit
)

func (t Transition) String() string {
	if t == Exit {
		return "exit"
	}
	return "enter"
}

// TransitionFromFlag decodes the boolean the HTTP API sends with every
// toggle request. The flag reports the state the client believes holds
// *before* the call: false means "not yet liked/bookmarked/followed, so
// enter", true means "already interacted, so exit". Bookmarks follow the
// same rule as every other interaction.
func TransitionFromFlag(alreadyInteracted bool) Transition {
	if alreadyInteracted {
		return Exit
	}
	return Enter
}

// EntityRef identifies a node by label and id.
type EntityRef struct {
	Label string
	ID    string
}

// Participants is what a transition needs to know about the actor, the
// target and the target's owner.
type Participants struct {
	ActorName  string
	TargetName string
	// OwnerID is empty when the owner could not be resolved.
	OwnerID string
}

// NotificationKey identifies the single live notification an interaction
// owns. The actor is not part of it: several actors liking one post share
// the owner's one liked_post notification.
type NotificationKey struct {
	OwnerID         string
	RelatedEntityID string
	Type            models.NotificationType
}

// WriteTx is the set of graph mutations a transition is made of. All calls
// made through one WriteTx commit or roll back together.
type WriteTx interface {
	// Resolve loads the participants of an interaction. found is false when
	// the target does not exist.
	Resolve(ctx context.Context, actorID string, target EntityRef, owner OwnerRule) (p Participants, found bool, err error)
	// MergeEdge creates from-[edgeType]->to unless it exists, upserting both
	// endpoint nodes by id.
	MergeEdge(ctx context.Context, from EntityRef, edgeType string, to EntityRef, at time.Time) error
	// DeleteEdge removes every from-[edgeType]->to edge and reports how many there were.
	DeleteEdge(ctx context.Context, from EntityRef, edgeType string, to EntityRef) (int64, error)
	// CountEdges counts from-[edgeType]->to edges.
	CountEdges(ctx context.Context, from EntityRef, edgeType string, to EntityRef) (int64, error)
	// MergeNotification creates the notification identified by key unless it exists.
	MergeNotification(ctx context.Context, key NotificationKey, n models.Notification) error
	// DeleteNotification removes the notification identified by key, if any.
	DeleteNotification(ctx context.Context, key NotificationKey) (int64, error)
}

// GraphWriter runs a unit of work in one write transaction.
type GraphWriter interface {
	Write(ctx context.Context, work func(ctx context.Context, tx WriteTx) error) error
}

// Machine applies interaction transitions. Each call runs its edge and
// notification writes in one transaction, so a failure in either half rolls
// back both.
type Machine struct {
	writer  GraphWriter
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
	newID   func() string
}

// NewMachine creates a Machine writing through w.
func NewMachine(w GraphWriter, opts ...Option) *Machine {
	o := buildOptions(opts)
	return &Machine{writer: w, logger: o.logger, metrics: o.metrics, now: o.now, newID: o.newID}
}

// Enter applies the Enter transition of kind for the actor of ctx.
func (m *Machine) Enter(ctx context.Context, kind Interaction, targetID string) error {
	return m.Apply(ctx, kind, targetID, Enter)
}

// Exit applies the Exit transition of kind for the actor of ctx.
func (m *Machine) Exit(ctx context.Context, kind Interaction, targetID string) error {
	return m.Apply(ctx, kind, targetID, Exit)
}

// Toggle applies the transition encoded by the legacy API flag, see
// TransitionFromFlag.
func (m *Machine) Toggle(ctx context.Context, kind Interaction, targetID string, alreadyInteracted bool) error {
	return m.Apply(ctx, kind, targetID, TransitionFromFlag(alreadyInteracted))
}

// Apply runs transition t of kind between the authenticated actor of ctx and
// the target. Both transitions are idempotent: entering twice leaves one
// edge pair and one notification, exiting an absent interaction is a no-op.
func (m *Machine) Apply(ctx context.Context, kind Interaction, targetID string, t Transition) error {
	return m.apply(ctx, kind, targetID, t, nil)
}

// guard runs inside the transition's transaction once the target is known
// to exist; a non-nil error aborts the transition.
type guard func(ctx context.Context, tx WriteTx, actor session.Actor, target EntityRef) error

func (m *Machine) apply(ctx context.Context, kind Interaction, targetID string, t Transition, check guard) error {
	actor, err := session.ActorFrom(ctx)
	if err != nil {
		return err
	}
	if err := kind.Validate(); err != nil {
		return err
	}
	if targetID == "" {
		return &ValidationError{Field: "targetId", Reason: "is required"}
	}

	err = m.writer.Write(ctx, func(ctx context.Context, tx WriteTx) error {
		target := EntityRef{Label: kind.TargetLabel, ID: targetID}
		p, found, err := tx.Resolve(ctx, actor.ID, target, kind.Owner)
		if err != nil {
			return err
		}
		if t == Exit {
			if !found {
				return nil
			}
			return m.exit(ctx, tx, actor, kind, target, p)
		}
		if !found {
			return &NotFoundError{Label: kind.TargetLabel, ID: targetID}
		}
		if check != nil {
			if err := check(ctx, tx, actor, target); err != nil {
				return err
			}
		}
		return m.enter(ctx, tx, actor, kind, target, p)
	})
	if err != nil {
		m.logFailure(err, kind, t, actor.ID, targetID)
		return err
	}

	m.metrics.transition(kind.Name, t)
	m.logger.Debug("interaction applied",
		zap.String("interaction", kind.Name),
		zap.Stringer("transition", t),
		zap.String("actor", actor.ID),
		zap.String("target", targetID),
	)
	return nil
}

func (m *Machine) enter(ctx context.Context, tx WriteTx, actor session.Actor, kind Interaction, target EntityRef, p Participants) error {
	if p.OwnerID == "" {
		return &NotFoundError{Label: "owner of " + kind.TargetLabel, ID: target.ID}
	}

	at := m.now()
	self := EntityRef{Label: LabelUser, ID: actor.ID}
	if err := tx.MergeEdge(ctx, self, kind.Forward, target, at); err != nil {
		return err
	}
	if kind.Mirror != "" {
		if err := tx.MergeEdge(ctx, target, kind.Mirror, self, at); err != nil {
			return err
		}
	}

	name := displayName(p.ActorName, actor)
	return m.notify(ctx, tx, NotificationKey{
		OwnerID:         p.OwnerID,
		RelatedEntityID: target.ID,
		Type:            kind.NotificationType,
	}, actor.ID,
		kind.render(kind.MessageTemplate, actor.ID, name, target.ID, p.TargetName),
		kind.render(kind.LinkTemplate, actor.ID, name, target.ID, p.TargetName),
		at,
	)
}

func (m *Machine) exit(ctx context.Context, tx WriteTx, actor session.Actor, kind Interaction, target EntityRef, p Participants) error {
	self := EntityRef{Label: LabelUser, ID: actor.ID}
	forward, err := tx.DeleteEdge(ctx, self, kind.Forward, target)
	if err != nil {
		return err
	}
	if kind.Mirror != "" {
		mirror, err := tx.DeleteEdge(ctx, target, kind.Mirror, self)
		if err != nil {
			return err
		}
		if (forward == 0) != (mirror == 0) {
			// The half edge is gone now; record it and carry on.
			m.metrics.inconsistent(kind.Name)
			m.logger.Warn("half-present interaction edge pair removed",
				zap.Error(&InconsistentStateError{
					Interaction: kind.Name,
					ActorID:     actor.ID,
					TargetID:    target.ID,
					Forward:     forward,
					Mirror:      mirror,
				}),
			)
		}
	}

	if p.OwnerID == "" {
		return nil
	}
	_, err = tx.DeleteNotification(ctx, NotificationKey{
		OwnerID:         p.OwnerID,
		RelatedEntityID: target.ID,
		Type:            kind.NotificationType,
	})
	return err
}

func (m *Machine) notify(ctx context.Context, tx WriteTx, key NotificationKey, actorID, message, link string, at time.Time) error {
	return tx.MergeNotification(ctx, key, models.Notification{
		ID:               m.newID(),
		Message:          message,
		Read:             false,
		RelatedEntityID:  key.RelatedEntityID,
		Link:             link,
		CreatedAt:        at.UTC().Format(TimestampLayout),
		NotificationType: key.Type,
		ActorID:          actorID,
	})
}

func (m *Machine) logFailure(err error, kind Interaction, t Transition, actorID, targetID string) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("interaction", kind.Name),
		zap.Stringer("transition", t),
		zap.String("actor", actorID),
		zap.String("target", targetID),
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrForbidden) {
		m.logger.Info("interaction rejected", fields...)
		return
	}
	m.logger.Error("interaction failed", fields...)
}

func displayName(stored string, actor session.Actor) string {
	switch {
	case stored != "":
		return stored
	case actor.Username != "":
		return actor.Username
	default:
		return actor.ID
	}
}
