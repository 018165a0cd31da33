package handler_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mitra-ai/docchat/internal/pkg/errcode"
)

func TestChatSendAndSessionLifecycle(t *testing.T) {
	env := setupRouter(t)
	env.publishIndex(t, "The warranty period is two years.")
	env.generator.answer = "The warranty period is two years."

	form := url.Values{"message": {"how long is the warranty?"}, "chat_id": {"9"}}
	resp := env.postForm(t, "/api/v1/chat/send", form)
	require.Equal(t, http.StatusOK, resp.Code)
	_, data := parseEnvelope(t, resp)
	require.Equal(t, "The warranty period is two years.", data["response"])
	require.Equal(t, data["response"], data["message"])
	require.Equal(t, "9", data["chat_id"])
	require.Equal(t, "success", data["status"])
	require.NotEmpty(t, data["timestamp"])

	form = url.Values{"message": {"does it cover parts?"}, "chat_id": {"9"}}
	resp = env.postForm(t, "/api/v1/chat/send", form)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodGet, "/api/v1/chat/sessions/9")
	require.Equal(t, http.StatusOK, resp.Code)
	_, data = parseEnvelope(t, resp)
	messages, ok := data["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 4)
	first := messages[0].(map[string]interface{})
	require.Equal(t, "user", first["sender"])
	require.Equal(t, "how long is the warranty?", first["text"])
	second := messages[1].(map[string]interface{})
	require.Equal(t, "bot", second["sender"])
	lastUpdated := data["last_updated"]

	resp = env.postForm(t, "/api/v1/chat/sessions/9/clear", url.Values{})
	require.Equal(t, http.StatusOK, resp.Code)
	_, data = parseEnvelope(t, resp)
	require.Equal(t, "9", data["chat_id"])
	messages, ok = data["messages"].([]interface{})
	require.True(t, ok)
	require.Empty(t, messages)
	require.NotEqual(t, lastUpdated, data["last_updated"])

	resp = env.do(t, http.MethodDelete, "/api/v1/chat/sessions/9")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodGet, "/api/v1/chat/sessions/9")
	require.Equal(t, http.StatusNotFound, resp.Code)
	code, _ := parseEnvelope(t, resp)
	require.Equal(t, float64(errcode.ErrSessionNotFound), code)
}

func TestChatSendDefaultsChatID(t *testing.T) {
	env := setupRouter(t)
	env.publishIndex(t, "Some content.")
	env.generator.answer = "An answer."

	resp := env.postForm(t, "/api/v1/chat/send", url.Values{"message": {"hello"}})
	require.Equal(t, http.StatusOK, resp.Code)
	_, data := parseEnvelope(t, resp)
	require.Equal(t, "1", data["chat_id"])
}

func TestChatSendEmptyMessage(t *testing.T) {
	env := setupRouter(t)
	resp := env.postForm(t, "/api/v1/chat/send", url.Values{"message": {"   "}})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	code, _ := parseEnvelope(t, resp)
	require.Equal(t, float64(errcode.ErrEmptyQuery), code)
}

func TestChatSendWithoutIndexAnswersUnknown(t *testing.T) {
	env := setupRouter(t)
	resp := env.postForm(t, "/api/v1/chat/send", url.Values{"message": {"anything?"}})
	require.Equal(t, http.StatusOK, resp.Code)
	_, data := parseEnvelope(t, resp)
	require.Equal(t, "I don't know", data["response"])
}

func TestChatSendWithSources(t *testing.T) {
	env := setupRouter(t)
	env.publishIndex(t, "The return policy allows refunds within 30 days.")
	env.generator.answer = "Refunds are allowed within 30 days."

	form := url.Values{"message": {"what is the return policy?"}}
	resp := env.postForm(t, "/api/v1/chat/send_with_sources", form)
	require.Equal(t, http.StatusOK, resp.Code)
	_, data := parseEnvelope(t, resp)
	require.Equal(t, "Refunds are allowed within 30 days.", data["response"])
	require.Equal(t, false, data["is_unknown"])
	sources, ok := data["sources"].([]interface{})
	require.True(t, ok)
	require.Len(t, sources, 1)
	source := sources[0].(map[string]interface{})
	require.Contains(t, source["content"], "The return policy")
	metadata := source["metadata"].(map[string]interface{})
	require.Equal(t, "doc.pdf", metadata["source"])
	require.Equal(t, float64(1), metadata["page"])
}

func TestChatSendWithSourcesFlagsUnknown(t *testing.T) {
	env := setupRouter(t)
	env.publishIndex(t, "Unrelated content about gardening.")
	env.generator.answer = "I don't know"

	form := url.Values{"message": {"what is the capital of Mars?"}}
	resp := env.postForm(t, "/api/v1/chat/send_with_sources", form)
	require.Equal(t, http.StatusOK, resp.Code)
	_, data := parseEnvelope(t, resp)
	require.Equal(t, true, data["is_unknown"])

	sessions := env.sessions.List()
	require.Empty(t, sessions, "send_with_sources must not touch sessions")
}

func TestChatAnswersFromDocumentContext(t *testing.T) {
	env := setupRouter(t)
	env.publishIndex(t, "The sky is blue.")

	env.generator.answer = "The sky is blue."
	form := url.Values{"message": {"What color is the sky?"}}
	resp := env.postForm(t, "/api/v1/chat/send_with_sources", form)
	require.Equal(t, http.StatusOK, resp.Code)
	_, data := parseEnvelope(t, resp)
	require.Contains(t, data["response"], "blue")
	require.Equal(t, false, data["is_unknown"])
	sources := data["sources"].([]interface{})
	require.Len(t, sources, 1)
	require.Contains(t, sources[0].(map[string]interface{})["content"], "sky")

	env.generator.answer = "I don't know"
	form = url.Values{"message": {"What is the capital of France?"}}
	resp = env.postForm(t, "/api/v1/chat/send_with_sources", form)
	require.Equal(t, http.StatusOK, resp.Code)
	_, data = parseEnvelope(t, resp)
	require.Equal(t, "I don't know", data["response"])
	require.Equal(t, true, data["is_unknown"])
}

func TestHealthEndpoints(t *testing.T) {
	env := setupRouter(t)

	resp := env.do(t, http.MethodGet, "/api/v1/")
	require.Equal(t, http.StatusOK, resp.Code)
	_, data := parseEnvelope(t, resp)
	require.Equal(t, "ok", data["status"])

	resp = env.do(t, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code)
	_, data = parseEnvelope(t, resp)
	require.Equal(t, "healthy", data["status"])
	require.Equal(t, float64(0), data["chunk_count"])

	env.publishIndex(t, "content a", "content b")
	resp = env.do(t, http.MethodGet, "/api/v1/health")
	_, data = parseEnvelope(t, resp)
	require.Equal(t, "doc", data["index"])
	require.Equal(t, float64(2), data["chunk_count"])
}
