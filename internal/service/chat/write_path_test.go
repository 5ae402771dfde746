package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"flash_chat_server/internal/infrastructure/ai"
	"flash_chat_server/internal/model"
	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript(t *testing.T) {
	msgs := []model.Message{
		{ID: "3", SenderID: "a", ReceiverID: "b", Text: "third", Timestamp: 30},
		{ID: "1", SenderID: "b", ReceiverID: "a", Text: "first", Timestamp: 10},
		{ID: "x", SenderID: "a", ReceiverID: "c", Text: "other", Timestamp: 15},
		{ID: "2", SenderID: "a", ReceiverID: "b", Text: "second", Timestamp: 20},
		{ID: "y", SenderID: "c", ReceiverID: "b", Text: "other", Timestamp: 25},
	}

	ab := Transcript(msgs, "a", "b")
	ba := Transcript(msgs, "b", "a")
	assert.Equal(t, ab, ba)
	require.Len(t, ab, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{ab[0].Text, ab[1].Text, ab[2].Text})

	seen := map[string]int{}
	for _, m := range ab {
		seen[m.ID]++
	}
	assert.Equal(t, map[string]int{"1": 1, "2": 1, "3": 1}, seen)

	assert.Empty(t, Transcript(msgs, "a", "z"))
}

func TestBuildTurns(t *testing.T) {
	history := []model.Message{
		{SenderID: "me", ReceiverID: "bot", Text: "hey"},
		{SenderID: "bot", ReceiverID: "me", Text: "hi!"},
	}
	turns := BuildTurns(history, "me", "how are you")
	assert.Equal(t, []ai.Turn{
		{Role: ai.RoleUser, Text: "hey"},
		{Role: ai.RoleModel, Text: "hi!"},
		{Role: ai.RoleUser, Text: "how are you"},
	}, turns)
}

func TestSendMessage_Preconditions(t *testing.T) {
	n := newNode(t, newStore(t), "a", nil, "")
	ctx := context.Background()

	_, err := n.SendMessage(ctx, "hi")
	assert.ErrorIs(t, err, errorx.ErrNotLoggedIn)

	_, err = n.Register(ctx, "Ann", "pw")
	require.NoError(t, err)

	_, err = n.SendMessage(ctx, "hi")
	assert.Equal(t, errorx.CodeNoActiveSession, errorx.GetCode(err))

	_, err = n.SelectSession(SupportSessionID(n.Current().ID))
	require.NoError(t, err)
	_, err = n.SendMessage(ctx, "   ")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
	assert.Empty(t, n.Messages())
}

func TestSendMessage_Direct(t *testing.T) {
	st := newStore(t)
	a := newNode(t, st, "a", nil, "")
	b := newNode(t, st, "b", nil, "")
	ctx := context.Background()

	bob, err := b.Register(ctx, "Bob", "pw")
	require.NoError(t, err)
	ann, err := a.Register(ctx, "Ann", "pw")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok := a.User(bob.ID)
		return ok
	}, waitFor, tick)
	_, err = a.AddContact(ctx, "Bob", false)
	require.NoError(t, err)

	msg, err := a.SendMessage(ctx, "  hello bob  ")
	require.NoError(t, err)
	assert.Equal(t, "hello bob", msg.Text)
	assert.False(t, msg.IsSupportRequest)
	assert.Equal(t, "Ann", msg.FromName)
	assert.Equal(t, ann.ID, msg.SenderID)
	assert.Equal(t, bob.ID, msg.ReceiverID)
	assert.Positive(t, msg.Timestamp)

	// 对方节点通过存储收到
	require.Eventually(t, func() bool {
		for _, m := range b.Messages() {
			if m.ID == msg.ID {
				return true
			}
		}
		return false
	}, waitFor, tick)

	conv, err := a.ActiveConversation()
	require.NoError(t, err)
	assert.Equal(t, bob.ID, conv.Participant.ID)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, msg.ID, conv.Messages[0].ID)
}

func TestBotRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		fake *fakeReplier
		want string
	}{
		{name: "reply", fake: &fakeReplier{reply: "Hey Ann! 😄"}, want: "Hey Ann! 😄"},
		{name: "provider error", fake: &fakeReplier{err: errors.New("503")}, want: constants.REPLY_FALLBACK_TEXT},
		{name: "empty reply", fake: &fakeReplier{err: ai.ErrEmptyReply}, want: constants.REPLY_BUSY_TEXT},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := newNode(t, newStore(t), "a", tc.fake, "")
			ctx := context.Background()

			ann, err := n.Register(ctx, "Ann", "pw")
			require.NoError(t, err)
			_, err = n.AddContact(ctx, "Bob", true)
			require.NoError(t, err)
			bob, ok := n.UserByName("Bob")
			require.True(t, ok)

			sent, err := n.SendMessage(ctx, "hi")
			require.NoError(t, err)
			n.Wait()

			require.Eventually(t, func() bool { return len(n.Messages()) == 2 }, waitFor, tick)
			assert.Never(t, func() bool { return len(n.Messages()) > 2 }, 50*time.Millisecond, tick)

			conv, err := n.ActiveConversation()
			require.NoError(t, err)
			require.Len(t, conv.Messages, 2)
			assert.Equal(t, sent.ID, conv.Messages[0].ID)
			reply := conv.Messages[1]
			assert.Equal(t, bob.ID, reply.SenderID)
			assert.Equal(t, ann.ID, reply.ReceiverID)
			assert.Equal(t, tc.want, reply.Text)
			assert.Contains(t, reply.ID, constants.BOT_MESSAGE_PREFIX)

			assert.Equal(t, "Bob", tc.fake.persona)
			assert.Equal(t, []ai.Turn{{Role: ai.RoleUser, Text: "hi"}}, tc.fake.lastTurns())
		})
	}
}

func TestBotRoundTrip_HistoryAcrossSessions(t *testing.T) {
	fake := &fakeReplier{reply: "sure"}
	st := newStore(t)
	n := newNode(t, st, "a", fake, "")
	ctx := context.Background()

	_, err := n.Register(ctx, "Ann", "pw")
	require.NoError(t, err)
	_, err = n.AddContact(ctx, "Bob", true)
	require.NoError(t, err)
	_, err = n.SendMessage(ctx, "first")
	require.NoError(t, err)
	n.Wait()

	// 重新登录后会话重建，历史仍按用户对找回
	require.NoError(t, n.Logout(ctx))
	_, err = n.Login(ctx, "ann", "pw")
	require.NoError(t, err)
	_, err = n.AddContact(ctx, "bob", false)
	require.NoError(t, err)
	_, err = n.SendMessage(ctx, "second")
	require.NoError(t, err)
	n.Wait()

	assert.Equal(t, []ai.Turn{
		{Role: ai.RoleUser, Text: "first"},
		{Role: ai.RoleModel, Text: "sure"},
		{Role: ai.RoleUser, Text: "second"},
	}, fake.lastTurns())
}

func TestSendMessage_NilReplierFallsBack(t *testing.T) {
	n := newNode(t, newStore(t), "a", nil, "")
	ctx := context.Background()

	_, err := n.Register(ctx, "Ann", "pw")
	require.NoError(t, err)
	_, err = n.AddContact(ctx, "Bob", true)
	require.NoError(t, err)
	_, err = n.SendMessage(ctx, "hi")
	require.NoError(t, err)
	n.Wait()

	conv, err := n.ActiveConversation()
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, constants.REPLY_FALLBACK_TEXT, conv.Messages[1].Text)
}

func TestScenario_AnnCreatesBotBob(t *testing.T) {
	n := newNode(t, newStore(t), "a", &fakeReplier{reply: "yo"}, "")
	ctx := context.Background()

	_, err := n.Register(ctx, "Ann", "pw")
	require.NoError(t, err)

	_, err = n.AddContact(ctx, "Bob", false)
	assert.Equal(t, errorx.CodeUserNotExist, errorx.GetCode(err))

	session, err := n.AddContact(ctx, "Bob", true)
	require.NoError(t, err)

	bob, ok := n.UserByName("Bob")
	require.True(t, ok)
	assert.True(t, bob.IsBot)
	assert.Equal(t, "Bob", bob.Username)
	assert.Equal(t, constants.BOT_AVATAR_URL+"Bob", bob.Avatar)
	assert.Equal(t, model.StatusOnline, bob.Status)
	assert.Contains(t, bob.ID, constants.BOT_ID_PREFIX)
	assert.Empty(t, bob.Password)

	assert.Equal(t, bob.ID, session.ParticipantID)
	assert.Equal(t, session.ID, n.ActiveSessionID())
	assert.Equal(t, session.ID, n.Sessions()[0].ID)
}

func TestScenario_SupportRequestReachesSystemInbox(t *testing.T) {
	st := newStore(t)
	ops := newNode(t, st, "ops", nil, "op-pass")
	a := newNode(t, st, "a", nil, "")
	ctx := context.Background()

	_, err := ops.Login(ctx, "Flash", "op-pass")
	require.NoError(t, err)
	assert.Empty(t, ops.Sessions())

	ann, err := a.Register(ctx, "Ann", "pw")
	require.NoError(t, err)
	_, err = a.SelectSession(SupportSessionID(ann.ID))
	require.NoError(t, err)

	msg, err := a.SendMessage(ctx, "hi")
	require.NoError(t, err)
	assert.True(t, msg.IsSupportRequest)
	assert.Equal(t, "Ann: hi", msg.Text)
	assert.Equal(t, constants.SYSTEM_USER_ID, msg.ReceiverID)
	assert.Equal(t, "Ann", msg.FromName)

	_, err = a.SendMessage(ctx, "anyone there?")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(ops.Messages()) == 2
	}, waitFor, tick)
	sessions := ops.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, ann.ID, sessions[0].ParticipantID)
	assert.Equal(t, InboxSessionID(ann.ID), sessions[0].ID)

	// 系统账号回复不带前缀，也不是客服请求
	_, err = ops.SelectSession(sessions[0].ID)
	require.NoError(t, err)
	reply, err := ops.SendMessage(ctx, "hello Ann")
	require.NoError(t, err)
	assert.False(t, reply.IsSupportRequest)
	assert.Equal(t, "hello Ann", reply.Text)

	require.Eventually(t, func() bool {
		conv, err := a.ActiveConversation()
		return err == nil && len(conv.Messages) == 3
	}, waitFor, tick)
}
