package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &OpenAIClient{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}
}

func TestComplete_SendsRequestAndExtractsContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultModel, req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, 3000, req.MaxTokens)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "sys", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "usr", req.Messages[1].Content)

		_, _ = w.Write([]byte(`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"Prova\"}"}}]}`))
	})

	out, err := c.Complete(context.Background(), Prompt{System: "sys", User: "usr"})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Prova"}`, out)
}

func TestComplete_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "rate limited")
}

func TestComplete_EmptyOrMalformed(t *testing.T) {
	bodies := []string{
		`{"choices":[]}`,
		`{"choices":[{"message":{"content":"  "}}]}`,
	}
	for _, body := range bodies {
		body := body
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		_, err := c.Complete(context.Background(), Prompt{User: "x"})
		assert.ErrorIs(t, err, ErrEmptyCompletion, body)
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	assert.Error(t, err)
}

func TestComplete_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	c.Timeout = 50 * time.Millisecond

	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	assert.Error(t, err)
}

func TestComplete_MissingAPIKey(t *testing.T) {
	c := &OpenAIClient{BaseURL: "http://127.0.0.1:1"}
	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	assert.Error(t, err)
}
