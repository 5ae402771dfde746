package https_server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flash_chat_server/internal/config"
	"flash_chat_server/internal/dao/store"
	"flash_chat_server/internal/dto/respond"
	"flash_chat_server/internal/handler"
	"flash_chat_server/internal/infrastructure/ai"
	"flash_chat_server/internal/service"
	"flash_chat_server/internal/service/chat"
	"flash_chat_server/pkg/constants"
	"flash_chat_server/pkg/errorx"
	"flash_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticReplier struct{ text string }

func (s staticReplier) Generate(context.Context, string, []ai.Turn) (string, error) {
	return s.text, nil
}

type testServer struct {
	*httptest.Server
	handlers *handler.Handlers
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt.Init("flash-test-secret", 60)
	require.NoError(t, handler.InitTrans("zh"))

	st := store.NewChannelStore()
	client := chat.NewClient(st, nil, staticReplier{text: "hello from bot"}, chat.Options{SystemPassword: "ops-pass"})
	require.NoError(t, client.Start(context.Background()))
	require.Eventually(t, func() bool {
		_, ok := client.User(constants.SYSTEM_USER_ID)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	svc := service.NewServices(client)
	handlers := handler.NewHandlers(svc)
	srv := httptest.NewServer(Init(handlers, svc.User.CurrentUserID, config.Default()))
	t.Cleanup(func() {
		handlers.Close()
		srv.Close()
		client.Close()
		_ = st.Close()
	})
	return testServer{Server: srv, handlers: handlers}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) (int, handler.ResponseData) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env handler.ResponseData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env handler.ResponseData) T {
	t.Helper()
	require.Equal(t, errorx.CodeSuccess, env.Code, "msg: %v", env.Msg)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/session/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, errorx.CodeUnauthorized, env.Code)

	status, _ = s.do(t, http.MethodGet, "/session/list", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	_, env = s.do(t, http.MethodGet, "/user/current", "", nil)
	assert.Equal(t, errorx.CodeNoActiveSession, env.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/user/register", "", map[string]string{"username": "ann"})
	assert.Equal(t, errorx.CodeInvalidParam, env.Code)
	msg, ok := env.Msg.(map[string]any)
	require.True(t, ok, "validation message should be translated per field")
	assert.Contains(t, msg, "password")

	_, env = s.do(t, http.MethodPost, "/user/register", "", map[string]string{"username": "flash", "password": "x"})
	assert.Equal(t, errorx.CodeUsernameReserved, env.Code)
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/user/register", "", map[string]string{"username": "Ann", "password": "pw"})
	login := decodeData[respond.LoginRespond](t, env)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "Ann", login.User.Username)
	token := login.AccessToken

	_, env = s.do(t, http.MethodGet, "/user/current", "", nil)
	assert.Equal(t, login.User.UserId, decodeData[respond.LoginRespond](t, env).User.UserId)

	_, env = s.do(t, http.MethodGet, "/session/list", token, nil)
	sessions := decodeData[[]respond.SessionRespond](t, env)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].IsSupport)
	assert.Equal(t, constants.SYSTEM_USER_ID, sessions[0].Participant.UserId)

	_, env = s.do(t, http.MethodPost, "/contact/add", token, map[string]any{"name": "Helper"})
	assert.Equal(t, errorx.CodeUserNotExist, env.Code)

	_, env = s.do(t, http.MethodPost, "/contact/add", token, map[string]any{"name": "Helper", "create_bot": true})
	added := decodeData[respond.SessionRespond](t, env)
	assert.True(t, added.Participant.IsBot)
	assert.True(t, added.Active)

	// 推送连接
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.handlers.Ws.Connections() == 1 }, 2*time.Second, 5*time.Millisecond)

	_, env = s.do(t, http.MethodPost, "/message/send", token, map[string]string{"text": "hi"})
	sent := decodeData[respond.MessageRespond](t, env)
	assert.Equal(t, "hi", sent.Text)
	assert.Equal(t, added.Participant.UserId, sent.ReceiverId)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev chat.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.NotEmpty(t, ev.Type)

	var tr respond.TranscriptRespond
	for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); time.Sleep(10 * time.Millisecond) {
		_, env = s.do(t, http.MethodGet, "/message/transcript", token, nil)
		tr = decodeData[respond.TranscriptRespond](t, env)
		if len(tr.Messages) == 2 {
			break
		}
	}
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, "hi", tr.Messages[0].Text)
	assert.Equal(t, "hello from bot", tr.Messages[1].Text)

	_, env = s.do(t, http.MethodGet, "/session/list?search=help", token, nil)
	filtered := decodeData[[]respond.SessionRespond](t, env)
	require.Len(t, filtered, 1)
	assert.Equal(t, "hello from bot", filtered[0].LastMessage)

	_, env = s.do(t, http.MethodPost, "/session/select", token, map[string]string{"session_id": sessions[0].SessionId})
	assert.Equal(t, errorx.CodeSuccess, env.Code)
	_, env = s.do(t, http.MethodPost, "/session/select", token, map[string]string{"session_id": "missing"})
	assert.Equal(t, errorx.CodeNotFound, env.Code)

	_, env = s.do(t, http.MethodPost, "/user/logout", token, nil)
	assert.Equal(t, errorx.CodeSuccess, env.Code)

	// 登出后旧 Token 失效，推送连接被关闭
	status, _ := s.do(t, http.MethodGet, "/session/list", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.Eventually(t, func() bool { return s.handlers.Ws.Connections() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestSystemAccountLogin(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/user/login", "", map[string]string{"username": "Flash", "password": "wrong"})
	assert.Equal(t, errorx.CodeInvalidCredentials, env.Code)

	_, env = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"username": "flash", "password": "ops-pass"})
	login := decodeData[respond.LoginRespond](t, env)
	assert.True(t, login.User.IsOfficial)
}

func TestUserSwitchClosesPreviousPushConnection(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/user/register", "", map[string]string{"username": "Ann", "password": "pw"})
	annToken := decodeData[respond.LoginRespond](t, env).AccessToken

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/ws?token="+annToken, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.handlers.Ws.Connections() == 1 }, 2*time.Second, 5*time.Millisecond)

	// Bob 在同一节点上注册即成为当前用户，Ann 的推送连接被断开
	_, env = s.do(t, http.MethodPost, "/user/register", "", map[string]string{"username": "Bob", "password": "pw"})
	bobToken := decodeData[respond.LoginRespond](t, env).AccessToken
	require.Eventually(t, func() bool { return s.handlers.Ws.Connections() == 0 }, 2*time.Second, 5*time.Millisecond)

	status, _ := s.do(t, http.MethodGet, "/session/list", annToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	_, env = s.do(t, http.MethodGet, "/session/list", bobToken, nil)
	assert.Equal(t, errorx.CodeSuccess, env.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
