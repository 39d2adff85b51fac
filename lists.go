package neosocial

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
	"github.com/saulfrancisco-ruizacevedo/go-neosocial/session"
)

// Lists manages the items users save into their lists.
type Lists struct {
	runner TxRunner
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewLists creates a Lists writing through runner.
func NewLists(runner TxRunner, opts ...Option) *Lists {
	o := buildOptions(opts)
	return &Lists{runner: runner, logger: o.logger, now: o.now, newID: o.newID}
}

// AddItem saves item into its list and links it with a CONTAINS edge. The
// actor of ctx must own the list. item must reference exactly one entity; a
// missing ID or CreatedAt is filled in. Saving an item with an existing ID
// updates it, but only while it stays in the same list; an ID already used
// in another list is rejected with ErrForbidden.
func (l *Lists) AddItem(ctx context.Context, item models.ListItem) (*models.ListItem, error) {
	actor, err := session.ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if item.ID == "" {
		item.ID = l.newID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = l.now().UTC()
	}
	if err := validateStruct(item); err != nil {
		return nil, err
	}

	err = l.runner.ExecuteWrite(ctx, func(ctx context.Context, tx DBRunner) error {
		pm := NewPersistenceManager(tx)
		list, err := l.ownedList(ctx, pm, actor, item.ListID)
		if err != nil {
			return err
		}
		items, err := RepositoryFor[models.ListItem](pm)
		if err != nil {
			return err
		}
		existing, err := items.FindByID(ctx, item.ID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case existing.ListID != item.ListID:
			return ErrForbidden
		}
		if err := items.Save(ctx, &item); err != nil {
			return err
		}
		return pm.MergeRelation(ctx, list, &item, EdgeContains, map[string]interface{}{
			"timestamp": item.CreatedAt,
		})
	})
	if err != nil {
		l.logger.Info("list item not added",
			zap.Error(err),
			zap.String("list", item.ListID),
			zap.String("actor", actor.ID),
		)
		return nil, err
	}

	kind, targetID, _ := item.Target()
	l.logger.Debug("list item added",
		zap.String("list", item.ListID),
		zap.String("item", item.ID),
		zap.String("kind", string(kind)),
		zap.String("target", targetID),
	)
	return &item, nil
}

// RemoveItem deletes a list item and its CONTAINS edge. The actor of ctx
// must own the item's list.
func (l *Lists) RemoveItem(ctx context.Context, itemID string) error {
	actor, err := session.ActorFrom(ctx)
	if err != nil {
		return err
	}
	if itemID == "" {
		return &ValidationError{Field: "itemId", Reason: "is required"}
	}

	err = l.runner.ExecuteWrite(ctx, func(ctx context.Context, tx DBRunner) error {
		pm := NewPersistenceManager(tx)
		items, err := RepositoryFor[models.ListItem](pm)
		if err != nil {
			return err
		}
		item, err := items.FindByID(ctx, itemID)
		if err != nil {
			return err
		}
		if _, err := l.ownedList(ctx, pm, actor, item.ListID); err != nil {
			return err
		}
		return items.Delete(ctx, itemID)
	})
	if err != nil {
		l.logger.Info("list item not removed",
			zap.Error(err),
			zap.String("item", itemID),
			zap.String("actor", actor.ID),
		)
		return err
	}
	return nil
}

func (l *Lists) ownedList(ctx context.Context, pm *PersistenceManager, actor session.Actor, listID string) (*models.List, error) {
	lists, err := RepositoryFor[models.List](pm)
	if err != nil {
		return nil, err
	}
	list, err := lists.FindByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return list, nil
}
