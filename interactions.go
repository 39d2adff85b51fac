package neosocial

import (
	"fmt"
	"strings"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
)

// Node labels.
const (
	LabelUser         = "User"
	LabelPost         = "Post"
	LabelComment      = "Comment"
	LabelCommunity    = "Community"
	LabelDiscussion   = "CommunityDiscussion"
	LabelList         = "List"
	LabelListItem     = "ListItem"
	LabelMessage      = "Message"
	LabelNotification = "Notification"
)

// Relationship types.
const (
	EdgePosted                    = "POSTED"
	EdgeCommented                 = "COMMENTED"
	EdgeLikes                     = "LIKES"
	EdgeLiked                     = "LIKED"
	EdgeBookmarked                = "BOOKMARKED"
	EdgeReposts                   = "REPOSTS"
	EdgeReposted                  = "REPOSTED"
	EdgeFollowUser                = "FOLLOW_USER"
	EdgeFollowed                  = "FOLLOWED"
	EdgeFounded                   = "FOUNDED"
	EdgeCreated                   = "CREATED"
	EdgeJoined                    = "JOINED"
	EdgeInvited                   = "INVITED"
	EdgeInviteRequested           = "INVITE_REQUESTED"
	EdgeJoinedDiscussion          = "JOINED_DISCUSSION"
	EdgeInvitedDiscussion         = "INVITED_DISCUSSION"
	EdgeInviteRequestedDiscussion = "INVITE_REQUESTED_DISCUSSION"
	EdgeContains                  = "CONTAINS"
	EdgeNotifiedBy                = "NOTIFIED_BY"
)

// OwnerRule says how to find the user who owns a target entity and
// therefore receives the notification of an interaction with it.
type OwnerRule struct {
	// Property, when set, is the target property holding the owner's id.
	Property string
	// Edge, when set, is the type of the edge from the owner to the target.
	Edge string
}

// OwnerIsTarget is the rule for interactions whose target is a user.
var OwnerIsTarget = OwnerRule{}

// OwnerByProperty reads the owner id from a denormalized target property.
func OwnerByProperty(prop string) OwnerRule { return OwnerRule{Property: prop} }

// OwnerByEdge finds the owner through an (owner)-[:edge]->(target) edge.
func OwnerByEdge(edge string) OwnerRule { return OwnerRule{Edge: edge} }

// Interaction describes one toggleable social relationship. Every like,
// bookmark, repost, follow and join is an instance of it.
type Interaction struct {
	Name        string
	TargetLabel string
	// Forward goes from the actor to the target.
	Forward string
	// Mirror, when set, goes from the target back to the actor.
	Mirror           string
	NotificationType models.NotificationType
	// MessageTemplate and LinkTemplate accept {actor}, {actorId}, {target}
	// and {targetId} placeholders.
	MessageTemplate string
	LinkTemplate    string
	Owner           OwnerRule
}

// Validate checks that every name interpolated into query text is a plain
// identifier. Only descriptors that pass are ever turned into Cypher.
func (i Interaction) Validate() error {
	for field, v := range map[string]string{
		"targetLabel": i.TargetLabel,
		"forward":     i.Forward,
	} {
		if !identifierPattern.MatchString(v) {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a plain identifier", v)}
		}
	}
	for field, v := range map[string]string{
		"mirror":         i.Mirror,
		"owner.edge":     i.Owner.Edge,
		"owner.property": i.Owner.Property,
	} {
		if v != "" && !identifierPattern.MatchString(v) {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a plain identifier", v)}
		}
	}
	if i.NotificationType == "" {
		return &ValidationError{Field: "notificationType", Reason: "is required"}
	}
	return nil
}

func (i Interaction) render(tmpl string, actorID, actorName, targetID, targetName string) string {
	return strings.NewReplacer(
		"{actorId}", actorID,
		"{actor}", actorName,
		"{targetId}", targetID,
		"{target}", targetName,
	).Replace(tmpl)
}

// Built-in interactions.
var (
	LikePost = Interaction{
		Name: "like_post", TargetLabel: LabelPost,
		Forward: EdgeLikes, Mirror: EdgeLiked,
		NotificationType: models.NotificationLikedPost,
		MessageTemplate:  "{actor} liked your post",
		LinkTemplate:     "/posts/{targetId}",
		Owner:            OwnerByProperty("userId"),
	}
	BookmarkPost = Interaction{
		Name: "bookmark_post", TargetLabel: LabelPost,
		Forward:          EdgeBookmarked,
		NotificationType: models.NotificationBookmarkedPost,
		MessageTemplate:  "{actor} bookmarked your post",
		LinkTemplate:     "/posts/{targetId}",
		Owner:            OwnerByProperty("userId"),
	}
	RepostPost = Interaction{
		Name: "repost_post", TargetLabel: LabelPost,
		Forward: EdgeReposts, Mirror: EdgeReposted,
		NotificationType: models.NotificationRepostedPost,
		MessageTemplate:  "{actor} reposted your post",
		LinkTemplate:     "/posts/{targetId}",
		Owner:            OwnerByProperty("userId"),
	}
	FollowUser = Interaction{
		Name: "follow_user", TargetLabel: LabelUser,
		Forward: EdgeFollowUser, Mirror: EdgeFollowed,
		NotificationType: models.NotificationFollowedUser,
		MessageTemplate:  "{actor} started following you",
		LinkTemplate:     "/users/{actorId}",
		Owner:            OwnerIsTarget,
	}
	JoinCommunity = Interaction{
		Name: "join_community", TargetLabel: LabelCommunity,
		Forward: EdgeJoined, Mirror: EdgeInvited,
		NotificationType: models.NotificationUserJoined,
		MessageTemplate:  "{actor} joined your community {target}",
		LinkTemplate:     "/communities/{targetId}",
		Owner:            OwnerByEdge(EdgeFounded),
	}
	LikeComment = Interaction{
		Name: "like_comment", TargetLabel: LabelComment,
		Forward: EdgeLikes, Mirror: EdgeLiked,
		NotificationType: models.NotificationLikedComment,
		MessageTemplate:  "{actor} liked your comment",
		LinkTemplate:     "/comments/{targetId}",
		Owner:            OwnerByProperty("userId"),
	}
	RepostComment = Interaction{
		Name: "repost_comment", TargetLabel: LabelComment,
		Forward: EdgeReposts, Mirror: EdgeReposted,
		NotificationType: models.NotificationRepostedComment,
		MessageTemplate:  "{actor} reposted your comment",
		LinkTemplate:     "/comments/{targetId}",
		Owner:            OwnerByProperty("userId"),
	}
	JoinDiscussion = Interaction{
		Name: "join_discussion", TargetLabel: LabelDiscussion,
		Forward: EdgeJoinedDiscussion, Mirror: EdgeInvitedDiscussion,
		NotificationType: models.NotificationUserJoinedDiscussion,
		MessageTemplate:  "{actor} joined your discussion {target}",
		LinkTemplate:     "/discussions/{targetId}",
		Owner:            OwnerByEdge(EdgeCreated),
	}
	RequestJoinCommunity = Interaction{
		Name: "request_join_community", TargetLabel: LabelCommunity,
		Forward:          EdgeInviteRequested,
		NotificationType: models.NotificationUserRequestJoin,
		MessageTemplate:  "{actor} asked to join your community {target}",
		LinkTemplate:     "/communities/{targetId}/requests",
		Owner:            OwnerByEdge(EdgeFounded),
	}
	RequestJoinDiscussion = Interaction{
		Name: "request_join_discussion", TargetLabel: LabelDiscussion,
		Forward:          EdgeInviteRequestedDiscussion,
		NotificationType: models.NotificationUserRequestJoin,
		MessageTemplate:  "{actor} asked to join your discussion {target}",
		LinkTemplate:     "/discussions/{targetId}/requests",
		Owner:            OwnerByEdge(EdgeCreated),
	}
)

// Interactions lists the built-in toggle interactions by name.
var Interactions = map[string]Interaction{
	LikePost.Name:              LikePost,
	BookmarkPost.Name:          BookmarkPost,
	RepostPost.Name:            RepostPost,
	FollowUser.Name:            FollowUser,
	JoinCommunity.Name:         JoinCommunity,
	LikeComment.Name:           LikeComment,
	RepostComment.Name:         RepostComment,
	JoinDiscussion.Name:        JoinDiscussion,
	RequestJoinCommunity.Name:  RequestJoinCommunity,
	RequestJoinDiscussion.Name: RequestJoinDiscussion,
}
