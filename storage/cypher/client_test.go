package cypher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/chunkd/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("requires base url", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		assert.Error(t, err)
	})

	t.Run("defaults database and timeout", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "http://localhost:7474"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:7474/db/neo4j/tx/commit", client.commitURL)
	})

	t.Run("custom database", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "http://localhost:7474/", Database: "graphs"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:7474/db/graphs/tx/commit", client.commitURL)
	})
}

func TestClientCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("posts statements and decodes rows", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody commitRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{{
					"columns": []string{"n"},
					"data":    []map[string]any{{"row": []any{float64(7)}}},
				}},
				"errors": []any{},
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{
			BaseURL:  server.URL,
			Username: "neo4j",
			Password: "secret",
		})
		require.NoError(t, err)

		results, err := client.Commit(ctx, Statement{
			Statement:  "RETURN $n",
			Parameters: map[string]any{"n": 7},
		})
		require.NoError(t, err)

		assert.Equal(t, "/db/neo4j/tx/commit", gotPath)
		assert.NotEmpty(t, gotAuth)
		require.Len(t, gotBody.Statements, 1)
		assert.Equal(t, "RETURN $n", gotBody.Statements[0].Statement)

		require.Len(t, results, 1)
		assert.Equal(t, []string{"n"}, results[0].Columns)
		require.Len(t, results[0].Rows, 1)
		assert.Equal(t, float64(7), results[0].Rows[0][0])
	})

	t.Run("no auth header without username", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"results":[],"errors":[]}`))
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Commit(ctx, Statement{Statement: "RETURN 1"})
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})

	t.Run("error status maps to upstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Commit(ctx, Statement{Statement: "RETURN 1"})
		assert.ErrorIs(t, err, core.ErrUpstream)
	})

	t.Run("statement errors map to upstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":[],"errors":[{"code":"Neo.ClientError.Statement.SyntaxError","message":"bad syntax"}]}`))
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Commit(ctx, Statement{Statement: "RETRN 1"})
		assert.ErrorIs(t, err, core.ErrUpstream)
		assert.Contains(t, err.Error(), "SyntaxError")
	})

	t.Run("timeout maps to upstream timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"results":[],"errors":[]}`))
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
		require.NoError(t, err)

		_, err = client.Commit(ctx, Statement{Statement: "RETURN 1"})
		assert.ErrorIs(t, err, core.ErrUpstreamTimeout)
	})
}
