package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Resolve(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(Response{Resolution: Resolution{
			Action:  "open_workspace",
			Message: "Opening Recipes.",
			Success: true,
			Workspace: &WorkspaceRef{
				ID:   "w1",
				Name: "Recipes",
			},
		}})
	}))
	defer srv.Close()

	client := NewHTTPClient(DefaultHTTPConfig(srv.URL, "secret"))
	resp, err := client.Resolve(context.Background(), Request{
		Message: "open recipes",
		Context: RequestContext{SessionState: ""},
	})
	require.NoError(t, err)

	require.Equal(t, "/api/chat/resolve", gotPath)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "open recipes", gotReq.Message)
	require.Equal(t, "open_workspace", resp.Resolution.Action)
	require.Equal(t, "w1", resp.Resolution.Workspace.ID)
}

func TestHTTPClient_Resolve_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(DefaultHTTPConfig(srv.URL, ""))
	_, err := client.Resolve(context.Background(), Request{Message: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestHTTPClient_Retrieve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/retrieve", r.URL.Path)
		var req RetrievalRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, RetrievalDoc, req.Kind)
		json.NewEncoder(w).Encode(map[string]string{"answer": "A workspace groups related notes."})
	}))
	defer srv.Close()

	client := NewHTTPClient(DefaultHTTPConfig(srv.URL, ""))
	answer, err := client.Retrieve(context.Background(), RetrievalRequest{
		Kind:    RetrievalDoc,
		Message: "what is a workspace",
	})
	require.NoError(t, err)
	require.Equal(t, "A workspace groups related notes.", answer)
}

func TestHTTPClient_ClassifyShowAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/classify-show-all", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Recent entries", req["previewTitle"])
		json.NewEncoder(w).Encode(map[string]bool{"showAll": true})
	}))
	defer srv.Close()

	client := NewHTTPClient(DefaultHTTPConfig(srv.URL, ""))
	showAll, err := client.ClassifyShowAll(context.Background(), "what about the rest", "Recent entries")
	require.NoError(t, err)
	require.True(t, showAll)
}
