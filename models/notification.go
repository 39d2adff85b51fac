package models

// NotificationType is the closed set of notification tags.
type NotificationType string

const (
	NotificationLikedPost            NotificationType = "liked_post"
	NotificationBookmarkedPost       NotificationType = "bookmarked_post"
	NotificationRepostedPost         NotificationType = "reposted_post"
	NotificationFollowedUser         NotificationType = "followed_user"
	NotificationUserJoined           NotificationType = "user_joined"
	NotificationLikedComment         NotificationType = "liked_comment"
	NotificationRepostedComment      NotificationType = "reposted_comment"
	NotificationUserJoinedDiscussion NotificationType = "user_joined_discussion"
	NotificationCommentOnPost        NotificationType = "comment_on_post"
	NotificationUserRequestJoin      NotificationType = "user_request_join"
	NotificationRequestAccepted      NotificationType = "request_accepted"
	NotificationRequestDenied        NotificationType = "request_denied"
)

// Notification is attached to its owner through a NOTIFIED_BY edge. For a
// given owner, related entity, type and actor there is at most one.
type Notification struct {
	ID               string           `crud:"pk,property:id" json:"id"`
	Message          string           `crud:"property:message" json:"message"`
	Read             bool             `crud:"property:read" json:"read"`
	RelatedEntityID  string           `crud:"property:relatedEntityId" json:"relatedEntityId"`
	Link             string           `crud:"property:link" json:"link"`
	CreatedAt        string           `crud:"property:createdAt" json:"createdAt"`
	NotificationType NotificationType `crud:"property:notificationType" json:"notificationType"`
	ActorID          string           `crud:"property:actorId" json:"actorId"`
}
