package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/engipa/internal/dictionary"
	"codeberg.org/snonux/engipa/internal/logging"
	"codeberg.org/snonux/engipa/internal/rhyme"
	"codeberg.org/snonux/engipa/internal/testutil"
	"codeberg.org/snonux/engipa/internal/transcribe"
)

func newTestServer(t *testing.T, gw *dictionary.Gateway, origins ...string) *Server {
	t.Helper()
	if gw == nil {
		gw = testutil.NewGateway(t)
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	logger := logging.Discard()
	return New(transcribe.New(gw, logger), rhyme.New(gw, logger), transcribe.DefaultOptions(), origins, logger)
}

// get performs a GET on the handler and decodes the JSON body into v
func get(t *testing.T, h http.Handler, path string, query url.Values, v any) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if query != nil {
		target += "?" + query.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if v != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
	}
	return rec
}

func TestTranscribeEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name      string
		query     url.Values
		want      string
		wantWords int
	}{
		{"best", url.Values{"text": {"Hello, world!"}}, "hɛlˈoʊ, wəˈrld!", 2},
		{"no punctuation", url.Values{"text": {"Hello, world!"}, "punct": {"false"}}, "hɛlˈoʊ wəˈrld", 2},
		{"primary stress", url.Values{"text": {"tomato"}, "stress": {"primary"}}, "təmˈɑtoʊ", 1},
		{"json backend", url.Values{"text": {"zzzqx red"}, "backend": {"json"}}, "zzzqx* rˈɛd", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp transcribeResponse
			rec := get(t, h, "/api/transcribe", tt.query, &resp)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, resp.Transcription)
			assert.Equal(t, tt.query.Get("text"), resp.Text)
			assert.Len(t, resp.Words, tt.wantWords)
		})
	}
}

func TestTranscribeEndpointAll(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	var resp transcribeResponse
	rec := get(t, h, "/api/transcribe", url.Values{"text": {"hello a"}, "all": {"true"}}, &resp)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Transcription)
	assert.Equal(t, []string{"həlˈoʊ ə", "həlˈoʊ ˈeɪ", "hɛlˈoʊ ə", "hɛlˈoʊ ˈeɪ"}, resp.Transcriptions)
	require.Len(t, resp.Words, 2)
	assert.Equal(t, []string{"ə", "ˈeɪ"}, resp.Words[1].Variants)
}

func TestTranscribeEndpointBadRequest(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []url.Values{
		nil,
		{"text": {"   "}},
		{"text": {"hello"}, "stress": {"loud"}},
		{"text": {"hello"}, "punct": {"maybe"}},
		{"text": {"hello"}, "backend": {"xml"}},
	}

	for _, q := range tests {
		var resp errorResponse
		rec := get(t, h, "/api/transcribe", q, &resp)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %v", q)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe?text=hello", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRhymesEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	var single rhymesResponse
	rec := get(t, h, "/api/rhymes", url.Values{"word": {"cat"}}, &single)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rhymesResponse{Word: "cat", Rhymes: []string{"bat", "hat"}}, single)

	var flat rhymesResponse
	rec = get(t, h, "/api/rhymes", url.Values{"word": {"red"}, "flat": {"true"}}, &flat)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"bed"}, flat.Rhymes)

	var none rhymesResponse
	get(t, h, "/api/rhymes", url.Values{"word": {"world"}}, &none)
	assert.NotNil(t, none.Rhymes)
	assert.Empty(t, none.Rhymes)

	var each rhymesEachResponse
	rec = get(t, h, "/api/rhymes", url.Values{"word": {"cat red"}}, &each)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"cat", "red"}, each.Words)
	assert.Equal(t, [][]string{{"bat", "hat"}, {"bed"}}, each.Rhymes)
}

func TestRhymesEndpointErrors(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		query url.Values
		code  int
	}{
		{nil, http.StatusBadRequest},
		{url.Values{"word": {"cat"}, "backend": {"xml"}}, http.StatusBadRequest},
		{url.Values{"word": {"zzzqx"}}, http.StatusNotFound},
		{url.Values{"word": {"the"}}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		var resp errorResponse
		rec := get(t, h, "/api/rhymes", tt.query, &resp)
		assert.Equal(t, tt.code, rec.Code, "query %v", tt.query)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestKnownEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	var resp knownResponse
	rec := get(t, h, "/api/known", url.Values{"words": {"hello world"}}, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Known)

	rec = get(t, h, "/api/known", url.Values{"words": {"hello zzzqx"}, "backend": {"json"}}, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Known)

	rec = get(t, h, "/api/known", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContainsEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	var resp containsResponse
	rec := get(t, h, "/api/contains", url.Values{"ipa": {"æt"}}, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []dictionary.IPAMatch{
		{Word: "bat", IPA: "bˈæt"},
		{Word: "cat", IPA: "kˈæt"},
		{Word: "hat", IPA: "hˈæt"},
	}, resp.Matches)

	rec = get(t, h, "/api/contains", url.Values{"ipa": {"xyz"}}, nil)
	assert.JSONEq(t, `{"ipa":"xyz","matches":[]}`, rec.Body.String())

	rec = get(t, h, "/api/contains", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	var resp healthResponse
	rec := get(t, h, "/api/health", nil, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
}

func TestBackendFailure(t *testing.T) {
	gw := dictionary.NewGateway(dictionary.Config{}, nil)
	gw.Register(dictionary.KindSQL, &testutil.MockBackend{Err: errors.New("disk on fire")})
	h := newTestServer(t, gw).Handler()

	var resp errorResponse
	rec := get(t, h, "/api/transcribe", url.Values{"text": {"hello"}}, &resp)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", resp.Error)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, nil, "https://example.org").Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
