package matchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"copymatch/highlight"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const engineResponse = `{
	"localScore": 56,
	"rabinKarpScore": 50,
	"jaccardScore": 80,
	"matches": [
		{"startA": 0, "endA": 32, "startB": 7, "endB": 39, "lineA": 1, "lineB": 1},
		{"startA": "bad"}
	]
}`

func TestClientBrotliCompression(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "br", r.Header.Get("Content-Encoding"), "Content-Encoding header")

		compressedBody, err := io.ReadAll(r.Body)
		assert.NoError(t, err, "reading request body")

		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(compressedBody)))
		assert.NoError(t, err, "decompressing request")

		var req MatchRequest
		assert.NoError(t, json.Unmarshal(decompressed, &req), "parsing JSON")
		assert.Equal(t, "source text", req.TextA, "text A")
		assert.Equal(t, "target text", req.TextB, "text B")

		io.WriteString(w, engineResponse)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 30000)
	res, err := client.Match(context.Background(), "source text", "target text")

	require.NoError(t, err)
	assert.Equal(t, 56.0, res.LocalScore, "local score")
	assert.Equal(t, 50.0, res.RabinKarpScore, "rabin-karp score")
	assert.Equal(t, 80.0, res.JaccardScore, "jaccard score")
	assert.Equal(t, []highlight.RawMatch{{StartA: 0, EndA: 32, StartB: 7, EndB: 39, LineA: 1, LineB: 1}}, res.Matches, "matches")
	assert.Equal(t, 1, res.Dropped, "malformed match dropped")
}

func TestClientCompressedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.ReadAll(r.Body)
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		io.WriteString(bw, engineResponse)
		bw.Close()
	}))
	defer server.Close()

	res, err := NewClient(server.URL, "", 30000).Match(context.Background(), "a", "b")

	require.NoError(t, err)
	assert.Len(t, res.Matches, 1, "decoded from brotli body")
}

func TestClientAuthorizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer my-secret-token", r.Header.Get("Authorization"), "Authorization header")
		io.ReadAll(r.Body)
		io.WriteString(w, `{"localScore": 0, "matches": []}`)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "my-secret-token", 30000).Match(context.Background(), "a", "b")
	assert.NoError(t, err, "Match")
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", 30000).Match(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503", "status in error")
}

func TestParseResponse(t *testing.T) {
	res, err := ParseResponse([]byte(`{"localScore": 12.5}`))
	require.NoError(t, err)
	assert.Equal(t, 12.5, res.LocalScore, "score only")
	assert.NotNil(t, res.Matches, "missing matches become an empty list")

	_, err = ParseResponse([]byte(`not json`))
	assert.Error(t, err, "unparsable body")

	_, err = ParseResponse([]byte(`{"matches": {"startA": 1}}`))
	assert.Error(t, err, "matches not an array")
}
