package chat

import (
	"context"
	"testing"

	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSupportSession_Idempotent(t *testing.T) {
	ann := &model.User{ID: "u-ann", Username: "Ann"}

	var sessions []model.ChatSession
	for i := 0; i < 5; i++ {
		sessions = EnsureSupportSession(sessions, ann)
	}
	require.Len(t, sessions, 1)
	assert.Equal(t, SupportSessionID("u-ann"), sessions[0].ID)
	assert.Equal(t, constants.SYSTEM_USER_ID, sessions[0].ParticipantID)
	assert.True(t, sessions[0].IsSupport)

	// 已有其他会话时前插，且不修改入参
	existing := []model.ChatSession{{ID: "s1", ParticipantID: "u-bob"}}
	out := EnsureSupportSession(existing, ann)
	require.Len(t, out, 2)
	assert.Equal(t, constants.SYSTEM_USER_ID, out[0].ParticipantID)
	assert.Len(t, existing, 1)
}

func TestEnsureSupportSession_SkipsSystemAndAnonymous(t *testing.T) {
	sys := model.SystemUser("")
	assert.Empty(t, EnsureSupportSession(nil, &sys))
	assert.Empty(t, EnsureSupportSession(nil, nil))
}

func TestInboxSessions(t *testing.T) {
	sys := model.SystemUser("")
	msgs := []model.Message{
		{ID: "1", SenderID: "u-ann", ReceiverID: constants.SYSTEM_USER_ID, Timestamp: 1},
		{ID: "2", SenderID: "u-ann", ReceiverID: constants.SYSTEM_USER_ID, Timestamp: 2},
		{ID: "3", SenderID: "u-bob", ReceiverID: constants.SYSTEM_USER_ID, Timestamp: 3},
		{ID: "4", SenderID: "u-cat", ReceiverID: "u-ann", Timestamp: 4},
	}

	sessions := InboxSessions(nil, &sys, msgs)
	require.Len(t, sessions, 2)
	// 后出现的发信人在前
	assert.Equal(t, "u-bob", sessions[0].ParticipantID)
	assert.Equal(t, InboxSessionID("u-bob"), sessions[0].ID)
	assert.Equal(t, "u-ann", sessions[1].ParticipantID)

	again := InboxSessions(sessions, &sys, msgs)
	assert.Equal(t, sessions, again)

	ann := &model.User{ID: "u-ann", Username: "Ann"}
	assert.Empty(t, InboxSessions(nil, ann, msgs))
}

func TestAddContact_Validation(t *testing.T) {
	n := newNode(t, newStore(t), "a", nil, "")
	ctx := context.Background()

	_, err := n.AddContact(ctx, "Bob", true)
	assert.ErrorIs(t, err, errorx.ErrNotLoggedIn)

	_, err = n.Register(ctx, "Ann", "pw")
	require.NoError(t, err)
	before := n.Sessions()

	_, err = n.AddContact(ctx, "   ", true)
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
	_, err = n.AddContact(ctx, " aNN ", true)
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
	_, err = n.AddContact(ctx, "Bob", false)
	assert.Equal(t, errorx.CodeUserNotExist, errorx.GetCode(err))

	assert.Equal(t, before, n.Sessions())
	_, ok := n.UserByName("Bob")
	assert.False(t, ok)
}

func TestAddContact_ExistingUserAndSessionReuse(t *testing.T) {
	st := newStore(t)
	a := newNode(t, st, "a", nil, "")
	b := newNode(t, st, "b", nil, "")
	ctx := context.Background()

	bob, err := b.Register(ctx, "Bob", "pw")
	require.NoError(t, err)
	_, err = a.Register(ctx, "Ann", "pw")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok := a.User(bob.ID)
		return ok
	}, waitFor, tick)

	s1, err := a.AddContact(ctx, "bob", true)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, s1.ParticipantID)
	assert.Equal(t, s1.ID, a.ActiveSessionID())
	// 目录中已有 Bob，不会创建机器人
	for _, u := range a.Users() {
		assert.False(t, u.IsBot)
	}

	sessions := a.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, s1.ID, sessions[0].ID)

	// 切走再添加同一个人，复用原会话
	_, err = a.SelectSession(SupportSessionID(a.Current().ID))
	require.NoError(t, err)
	s2, err := a.AddContact(ctx, "BOB", false)
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID)
	assert.Equal(t, s1.ID, a.ActiveSessionID())
	assert.Len(t, a.Sessions(), 2)
}

func TestSelectSession(t *testing.T) {
	n := newNode(t, newStore(t), "a", nil, "")
	ctx := context.Background()

	_, err := n.SelectSession("whatever")
	assert.ErrorIs(t, err, errorx.ErrNotLoggedIn)

	ann, err := n.Register(ctx, "Ann", "pw")
	require.NoError(t, err)

	_, err = n.SelectSession("missing")
	assert.True(t, errorx.IsNotFound(err))

	s, err := n.SelectSession(SupportSessionID(ann.ID))
	require.NoError(t, err)
	assert.True(t, s.IsSupport)
	assert.Equal(t, s.ID, n.ActiveSessionID())
}

func TestSessionList(t *testing.T) {
	st := newStore(t)
	n := newNode(t, st, "a", &fakeReplier{reply: "hey"}, "")
	ctx := context.Background()

	_, err := n.Register(ctx, "Ann", "pw")
	require.NoError(t, err)
	_, err = n.AddContact(ctx, "Bobby", true)
	require.NoError(t, err)
	_, err = n.AddContact(ctx, "Carol", true)
	require.NoError(t, err)

	_, err = n.SendMessage(ctx, "hello carol")
	require.NoError(t, err)
	n.Wait()

	items := n.SessionList("")
	require.Len(t, items, 3)
	assert.Equal(t, "Carol", items[0].Participant.Username)
	assert.True(t, items[0].Active)
	assert.Equal(t, "hey", items[0].Session.LastMessage)
	assert.NotZero(t, items[0].Session.LastTimestamp)
	assert.Empty(t, items[1].Session.LastMessage)

	items = n.SessionList("  BOB ")
	require.Len(t, items, 1)
	assert.Equal(t, "Bobby", items[0].Participant.Username)

	items = n.SessionList("fla")
	require.Len(t, items, 1)
	assert.Equal(t, constants.SYSTEM_USER_ID, items[0].Participant.ID)

	assert.Empty(t, n.SessionList("zzz"))
}

func TestSessionList_HidesUnresolvedParticipants(t *testing.T) {
	// 不启动订阅：系统账号不在目录中，客服会话不展示
	c := NewClient(newStore(t), nil, nil, testOptions("x-", ""))
	defer c.Close()

	_, err := c.Register(context.Background(), "Ann", "pw")
	require.NoError(t, err)
	assert.Len(t, c.Sessions(), 1)
	assert.Empty(t, c.SessionList(""))
}
