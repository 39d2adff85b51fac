package neosocial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
)

// communityGraph holds founder bob (u2) of community c1 and alice (u1).
func communityGraph() *memGraph {
	return newMemGraph().
		addNode(LabelUser, "u1", map[string]any{"username": "alice"}).
		addNode(LabelUser, "u2", map[string]any{"username": "bob"}).
		addNode(LabelCommunity, "c1", map[string]any{"name": "Gophers"}).
		addEdge(LabelUser, "u2", EdgeFounded, LabelCommunity, "c1")
}

func TestRequestJoinNotifiesOwner(t *testing.T) {
	g := communityGraph()
	m, _, _ := newTestMachine(t, g)

	require.NoError(t, m.RequestJoin(asActor("u1", "alice"), CommunityInvites, "c1"))

	assert.EqualValues(t, 1, g.edgeCount(LabelUser, "u1", EdgeInviteRequested, LabelCommunity, "c1"))
	notes := g.notificationsFor("u2", models.NotificationUserRequestJoin)
	require.Len(t, notes, 1)
	assert.Equal(t, "alice asked to join your community Gophers", notes[0].Message)
}

func TestRequestJoinRejectsMembers(t *testing.T) {
	g := communityGraph().
		addEdge(LabelUser, "u1", EdgeJoined, LabelCommunity, "c1").
		addEdge(LabelCommunity, "c1", EdgeInvited, LabelUser, "u1")
	m, logs, _ := newTestMachine(t, g)

	err := m.RequestJoin(asActor("u1", "alice"), CommunityInvites, "c1")
	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
	assert.Equal(t, 400, StatusCode(err))

	assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeInviteRequested, LabelCommunity, "c1"))
	assert.Empty(t, g.notificationsFor("u2", models.NotificationUserRequestJoin))
	assert.Equal(t, 1, logs.FilterMessage("interaction rejected").Len())
}

func TestRequestJoinAfterAcceptIsRejected(t *testing.T) {
	g := communityGraph()
	m, _, _ := newTestMachine(t, g)
	require.NoError(t, m.RequestJoin(asActor("u1", "alice"), CommunityInvites, "c1"))
	require.NoError(t, m.AcceptOrDeny(asActor("u2", "bob"), CommunityInvites, "c1", "u1", true))

	assert.ErrorIs(t, m.RequestJoin(asActor("u1", "alice"), CommunityInvites, "c1"), ErrAlreadyJoined)
	assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeInviteRequested, LabelCommunity, "c1"))
}

func TestCancelRequest(t *testing.T) {
	g := communityGraph()
	m, _, _ := newTestMachine(t, g)
	ctx := asActor("u1", "alice")

	require.NoError(t, m.RequestJoin(ctx, CommunityInvites, "c1"))
	require.NoError(t, m.CancelRequest(ctx, CommunityInvites, "c1"))

	assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeInviteRequested, LabelCommunity, "c1"))
	assert.Empty(t, g.notificationsFor("u2", models.NotificationUserRequestJoin))
}

func TestAcceptJoinRequest(t *testing.T) {
	g := communityGraph()
	m, _, _ := newTestMachine(t, g)
	require.NoError(t, m.RequestJoin(asActor("u1", "alice"), CommunityInvites, "c1"))

	require.NoError(t, m.AcceptOrDeny(asActor("u2", "bob"), CommunityInvites, "c1", "u1", true))

	assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeInviteRequested, LabelCommunity, "c1"))
	assert.EqualValues(t, 1, g.edgeCount(LabelUser, "u1", EdgeJoined, LabelCommunity, "c1"))
	assert.EqualValues(t, 1, g.edgeCount(LabelCommunity, "c1", EdgeInvited, LabelUser, "u1"))

	assert.Empty(t, g.notificationsFor("u2", models.NotificationUserRequestJoin))
	joined := g.notificationsFor("u2", models.NotificationUserJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "u1", joined[0].ActorID)

	accepted := g.notificationsFor("u1", models.NotificationRequestAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, "u2", accepted[0].ActorID)
	assert.Equal(t, "Your request to join Gophers was accepted", accepted[0].Message)
}

func TestDenyJoinRequest(t *testing.T) {
	g := communityGraph()
	m, _, _ := newTestMachine(t, g)
	require.NoError(t, m.RequestJoin(asActor("u1", "alice"), CommunityInvites, "c1"))

	require.NoError(t, m.AcceptOrDeny(asActor("u2", "bob"), CommunityInvites, "c1", "u1", false))

	assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeInviteRequested, LabelCommunity, "c1"))
	assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeJoined, LabelCommunity, "c1"))
	assert.Empty(t, g.notificationsFor("u2", models.NotificationUserRequestJoin))
	assert.Empty(t, g.notificationsFor("u2", models.NotificationUserJoined))
	assert.Len(t, g.notificationsFor("u1", models.NotificationRequestDenied), 1)
}

func TestAcceptOrDenyRejections(t *testing.T) {
	t.Run("not the owner", func(t *testing.T) {
		g := communityGraph().addNode(LabelUser, "u3", map[string]any{"username": "carol"})
		m, _, _ := newTestMachine(t, g)
		require.NoError(t, m.RequestJoin(asActor("u1", "alice"), CommunityInvites, "c1"))

		err := m.AcceptOrDeny(asActor("u3", "carol"), CommunityInvites, "c1", "u1", true)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.EqualValues(t, 1, g.edgeCount(LabelUser, "u1", EdgeInviteRequested, LabelCommunity, "c1"))
		assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeJoined, LabelCommunity, "c1"))
	})

	t.Run("no pending request", func(t *testing.T) {
		g := communityGraph()
		m, _, _ := newTestMachine(t, g)

		err := m.AcceptOrDeny(asActor("u2", "bob"), CommunityInvites, "c1", "u1", true)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeJoined, LabelCommunity, "c1"))
		assert.Empty(t, g.notifications)
	})

	t.Run("unknown community", func(t *testing.T) {
		m, _, _ := newTestMachine(t, communityGraph())
		err := m.AcceptOrDeny(asActor("u2", "bob"), CommunityInvites, "c404", "u1", true)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing requester", func(t *testing.T) {
		m, _, _ := newTestMachine(t, communityGraph())
		err := m.AcceptOrDeny(asActor("u2", "bob"), CommunityInvites, "c1", "", true)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("failure keeps the request", func(t *testing.T) {
		g := communityGraph()
		m, _, _ := newTestMachine(t, g)
		require.NoError(t, m.RequestJoin(asActor("u1", "alice"), CommunityInvites, "c1"))
		g.failOn, g.failAfter = "delete_notification", 1

		err := m.AcceptOrDeny(asActor("u2", "bob"), CommunityInvites, "c1", "u1", true)
		require.ErrorIs(t, err, errInjected)
		assert.EqualValues(t, 1, g.edgeCount(LabelUser, "u1", EdgeInviteRequested, LabelCommunity, "c1"))
		assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeJoined, LabelCommunity, "c1"))
		assert.Len(t, g.notificationsFor("u2", models.NotificationUserRequestJoin), 1)
		assert.Empty(t, g.notificationsFor("u1", models.NotificationRequestAccepted))
	})
}

func TestDiscussionInvites(t *testing.T) {
	g := newMemGraph().
		addNode(LabelUser, "u1", map[string]any{"username": "alice"}).
		addNode(LabelUser, "u2", map[string]any{"username": "bob"}).
		addNode(LabelDiscussion, "d1", map[string]any{"title": "Generics"}).
		addEdge(LabelUser, "u2", EdgeCreated, LabelDiscussion, "d1")
	m, _, _ := newTestMachine(t, g)

	require.NoError(t, m.RequestJoin(asActor("u1", "alice"), DiscussionInvites, "d1"))
	require.NoError(t, m.AcceptOrDeny(asActor("u2", "bob"), DiscussionInvites, "d1", "u1", true))

	assert.EqualValues(t, 1, g.edgeCount(LabelUser, "u1", EdgeJoinedDiscussion, LabelDiscussion, "d1"))
	assert.EqualValues(t, 1, g.edgeCount(LabelDiscussion, "d1", EdgeInvitedDiscussion, LabelUser, "u1"))
	assert.Zero(t, g.edgeCount(LabelUser, "u1", EdgeInviteRequestedDiscussion, LabelDiscussion, "d1"))
	joined := g.notificationsFor("u2", models.NotificationUserJoinedDiscussion)
	require.Len(t, joined, 1)
	assert.Equal(t, "alice joined your discussion Generics", joined[0].Message)
}
