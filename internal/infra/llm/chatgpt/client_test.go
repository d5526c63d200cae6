package chatgpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weatherwear/pkg/metrics"
)

func TestCreateChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/openai/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret-key-1234", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gemini-2.5-flash", req.Model)
		require.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"top\":\"Tee\"}"}}],"usage":{"prompt_tokens":120,"completion_tokens":30,"total_tokens":150}}`))
	}))
	defer server.Close()

	recorder := &usageRecorder{}
	client, err := NewClient("secret-key-1234", server.URL+"/v1beta/openai/", time.Second, recorder)
	require.NoError(t, err)

	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:          "gemini-2.5-flash",
		Messages:       []Message{{Role: "user", Content: "hi"}},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, `{"top":"Tee"}`, resp.Choices[0].Message.Content)
	require.Equal(t, "gemini-2.5-flash", recorder.model)
	require.Equal(t, metrics.TokenUsage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}, recorder.usage)
}

func TestCreateChatCompletionStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer server.Close()

	recorder := &usageRecorder{}
	client, err := NewClient("bad", server.URL, time.Second, recorder)
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	require.ErrorContains(t, err, "status=401")
	require.ErrorContains(t, err, "API key not valid")
	require.Empty(t, recorder.model)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("  ", "", 0, nil)
	require.Error(t, err)
}

func TestMaskKey(t *testing.T) {
	require.Equal(t, "AIza...wxyz", MaskKey("AIzaSyD-abcdefghijklmnopwxyz"))
	require.Equal(t, "******", MaskKey("secret"))
	require.Equal(t, "", MaskKey(""))
}

type usageRecorder struct {
	model string
	usage metrics.TokenUsage
}

func (u *usageRecorder) ObserveTokens(model string, usage metrics.TokenUsage) {
	u.model = model
	u.usage = usage
}
