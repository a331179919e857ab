package genai_generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenAIGenerator_RequiresKey(t *testing.T) {
	_, err := NewGenAIGenerator(context.Background(), Config{})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	var gotPath, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.Unmarshal(body, &req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"summary\":\"ok\",\"priorities\":[],\"webScore\":80}"}]}}]}`)
	}))
	defer srv.Close()

	gen, err := NewGenAIGenerator(context.Background(), Config{APIKey: "test", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "audit this page")
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok","priorities":[],"webScore":80}`, text)
	assert.True(t, strings.HasSuffix(gotPath, "models/"+defaultModel+":generateContent"), gotPath)
	assert.Equal(t, "audit this page", gotPrompt)
}

func TestGenerate_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	gen, err := NewGenAIGenerator(context.Background(), Config{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
