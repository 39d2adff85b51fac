package models

import (
	"errors"
	"time"
)

// ListItem is one saved thing inside a List. Exactly one of the five
// reference fields is set; the schema does not enforce it, CheckTarget does.
type ListItem struct {
	ID                           string    `crud:"pk,property:id" json:"id" validate:"required"`
	ListID                       string    `crud:"property:listId" json:"listId" validate:"required"`
	PostID                       *string   `crud:"property:postId" json:"postId"`
	SavedUserID                  *string   `crud:"property:savedUserId" json:"savedUserId"`
	CommunityID                  *string   `crud:"property:communityId" json:"communityId"`
	CommunityDiscussionID        *string   `crud:"property:communityDiscussionId" json:"communityDiscussionId"`
	CommunityDiscussionMessageID *string   `crud:"property:communityDiscussionMessageId" json:"communityDiscussionMessageId"`
	CreatedAt                    time.Time `crud:"property:createdAt" json:"createdAt"`
}

// TargetKind names what a ListItem points to.
type TargetKind string

const (
	TargetPost              TargetKind = "post"
	TargetUser              TargetKind = "user"
	TargetCommunity         TargetKind = "community"
	TargetDiscussion        TargetKind = "discussion"
	TargetDiscussionMessage TargetKind = "message"
)

// ErrListItemTarget is returned when a ListItem references zero or several entities.
var ErrListItemTarget = errors.New("list item must reference exactly one entity")

func (li ListItem) refs() []struct {
	kind TargetKind
	id   *string
} {
	return []struct {
		kind TargetKind
		id   *string
	}{
		{TargetPost, li.PostID},
		{TargetUser, li.SavedUserID},
		{TargetCommunity, li.CommunityID},
		{TargetDiscussion, li.CommunityDiscussionID},
		{TargetDiscussionMessage, li.CommunityDiscussionMessageID},
	}
}

// isSet reports whether an optional reference holds an id. A pointer to
// the empty string counts as unset.
func isSet(id *string) bool {
	return id != nil && *id != ""
}

// CheckTarget enforces the tagged-union invariant.
func (li ListItem) CheckTarget() error {
	set := 0
	for _, r := range li.refs() {
		if isSet(r.id) {
			set++
		}
	}
	if set != 1 {
		return ErrListItemTarget
	}
	return nil
}

// Target returns the kind and id of the referenced entity. ok is false when
// the invariant does not hold.
func (li ListItem) Target() (kind TargetKind, id string, ok bool) {
	if li.CheckTarget() != nil {
		return "", "", false
	}
	for _, r := range li.refs() {
		if isSet(r.id) {
			return r.kind, *r.id, true
		}
	}
	return "", "", false
}

// TargetID returns the referenced id, or "" when the invariant does not hold.
func (li ListItem) TargetID() string {
	_, id, _ := li.Target()
	return id
}
