// Package models contains the domain entities of the social graph.
// The `crud` struct tags map each struct to its node label and properties for
// the generic repository; the `json` tags are the wire shape.
package models

import (
	"errors"
	"time"
)

// User is a member of the network. Created on first external sign-in.
type User struct {
	ID               string   `crud:"pk,property:id" json:"id"`
	Username         string   `crud:"property:username" json:"username"`
	Email            string   `crud:"property:email" json:"email"`
	FirstName        string   `crud:"property:firstName" json:"firstName"`
	LastName         string   `crud:"property:lastName" json:"lastName"`
	ProfileImg       string   `crud:"property:profileImg" json:"profileImg"`
	Bio              string   `crud:"property:bio" json:"bio"`
	Hobbies          []string `crud:"property:hobbies" json:"hobbies"`
	StudyTopics      []string `crud:"property:studyTopics" json:"studyTopics"`
	FavoriteScholars []string `crud:"property:favoriteScholars" json:"favoriteScholars"`
	FavoriteReciters []string `crud:"property:favoriteReciters" json:"favoriteReciters"`
}

// Post is authored content. UserID duplicates the POSTED edge so the author
// can be found without a traversal.
type Post struct {
	ID        string    `crud:"pk,property:id" json:"id"`
	UserID    string    `crud:"property:userId" json:"userId"`
	Text      string    `crud:"property:text" json:"text"`
	Image     *string   `crud:"property:image" json:"image"`
	Tags      []string  `crud:"property:tags" json:"tags"`
	CreatedAt time.Time `crud:"property:createdAt" json:"createdAt"`
}

// Comment replies either to a post or to another comment, never both.
type Comment struct {
	ID              string    `crud:"pk,property:id" json:"id" validate:"required"`
	UserID          string    `crud:"property:userId" json:"userId" validate:"required"`
	PostID          *string   `crud:"property:postId" json:"postId"`
	ParentCommentID *string   `crud:"property:parentCommentId" json:"parentCommentId"`
	Text            string    `crud:"property:text" json:"text" validate:"required"`
	Image           *string   `crud:"property:image" json:"image"`
	CreatedAt       time.Time `crud:"property:createdAt" json:"createdAt"`
}

// ErrCommentParent is returned when a comment has no parent or two.
var ErrCommentParent = errors.New("comment must reference exactly one of postId or parentCommentId")

// CheckParent enforces that exactly one of PostID and ParentCommentID is set.
func (c Comment) CheckParent() error {
	if isSet(c.PostID) == isSet(c.ParentCommentID) {
		return ErrCommentParent
	}
	return nil
}

// Community is a group with a founder (FOUNDED edge) and members (JOINED edges).
type Community struct {
	ID          string `crud:"pk,property:id" json:"id"`
	Name        string `crud:"property:name" json:"name"`
	Description string `crud:"property:description" json:"description"`
	Image       string `crud:"property:image" json:"image"`
}

// CommunityDiscussion is a thread inside a community with its own members
// and a creator (CREATED edge).
type CommunityDiscussion struct {
	ID          string `crud:"pk,property:id" json:"id"`
	CommunityID string `crud:"property:communityId" json:"communityId"`
	Title       string `crud:"property:title" json:"title"`
	Text        string `crud:"property:text" json:"text"`
}

// List is a named collection owned by a user.
type List struct {
	ID          string `crud:"pk,property:id" json:"id"`
	UserID      string `crud:"property:userId" json:"userId"`
	Name        string `crud:"property:name" json:"name"`
	Description string `crud:"property:description" json:"description"`
}

// Message is a direct message. Threads are not stored; see ThreadKey.
type Message struct {
	ID                string    `crud:"pk,property:id" json:"id"`
	SenderID          string    `crud:"property:senderId" json:"senderId"`
	RecipientID       string    `crud:"property:recipientId" json:"recipientId"`
	SenderUsername    string    `crud:"property:senderUsername" json:"senderUsername"`
	RecipientUsername string    `crud:"property:recipientUsername" json:"recipientUsername"`
	SenderProfileImg  string    `crud:"property:senderProfileImg" json:"senderProfileImg"`
	Text              string    `crud:"property:text" json:"text"`
	Read              bool      `crud:"property:read" json:"read"`
	CreatedAt         time.Time `crud:"property:createdAt" json:"createdAt"`
}

// ThreadKey identifies the conversation between two users regardless of who
// sent a given message.
func ThreadKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// Thread returns the ThreadKey of the message.
func (m Message) Thread() string {
	return ThreadKey(m.SenderID, m.RecipientID)
}
