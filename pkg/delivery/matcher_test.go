package delivery

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

func TestHTTPMatcher_Match_DecodesRankedChats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req matchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Secondary", req.Level)
		assert.Equal(t, []string{"Math"}, req.Subjects)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(matchResponse{
			Matches: []Match{{ChatID: 111, Score: 0.9}, {ChatID: 222, Score: 0.4}},
		})
	}))
	defer server.Close()

	m := NewHTTPMatcher(server.URL, time.Second)
	matches, err := m.Match(context.Background(), Payload{Level: "Secondary", Subjects: []string{"Math"}})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(111), matches[0].ChatID)
	assert.Equal(t, 0.9, matches[0].Score)
}

func TestHTTPMatcher_Match_ReturnsErrorOnNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := NewHTTPMatcher(server.URL, time.Second)
	_, err := m.Match(context.Background(), Payload{})
	assert.Error(t, err)
}

func TestHTTPMatcher_Match_ReturnsErrorOnMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	m := NewHTTPMatcher(server.URL, time.Second)
	_, err := m.Match(context.Background(), Payload{})
	assert.Error(t, err)
}
