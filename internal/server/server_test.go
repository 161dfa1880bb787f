package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mithrel/muse/internal/auth"
	"github.com/mithrel/muse/internal/db"
	"github.com/mithrel/muse/internal/quicnet"
	"github.com/mithrel/muse/internal/service"
	"github.com/mithrel/muse/pkg/api"
	"github.com/mithrel/muse/pkg/markdown"
)

type testAPI struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := db.Open(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	s := New(Options{
		Service: service.New(store, nil),
		Tokens:  auth.NewTokenManager("test-secret-0123456789", time.Hour),
	})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return &testAPI{t: t, srv: ts}
}

func (a *testAPI) do(method, path, token string, body any) *http.Response {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (a *testAPI) signUp(email string) string {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	return decode[sessionResponse](a.t, resp).Token
}

func (a *testAPI) createDoc(token, title string) api.Document {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/v1/documents", token, map[string]string{"title": title})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	return decode[api.Document](a.t, resp)
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	resp := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(b))
}

func TestAuthFlow(t *testing.T) {
	a := newTestAPI(t)
	tok := a.signUp("ada@example.com")

	resp := a.do(http.MethodGet, "/v1/me", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", decode[api.User](t, resp).Email)

	resp = a.do(http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(http.MethodPost, "/v1/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(http.MethodPost, "/v1/auth/signin", "", map[string]string{"email": "ADA@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok2 := decode[sessionResponse](t, resp).Token

	resp = a.do(http.MethodPost, "/v1/auth/signout", tok2, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = a.do(http.MethodGet, "/v1/me", tok2, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignUpValidation(t *testing.T) {
	a := newTestAPI(t)
	resp := a.do(http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": "not-an-email", "password": "short"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")

	resp = a.do(http.MethodPost, "/v1/auth/signup", "", map[string]any{"email": "a@b.co", "unexpected": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatelessFormat(t *testing.T) {
	a := newTestAPI(t)
	resp := a.do(http.MethodPost, "/v1/format", "", map[string]any{"text": "hello world", "start": 6, "end": 11, "operation": "bold"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[markdown.Result](t, resp)
	assert.Equal(t, "hello **world**", res.Text)

	resp = a.do(http.MethodPost, "/v1/format", "", map[string]any{"text": "abc", "start": 0, "end": 3, "operation": "sparkle"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc", decode[markdown.Result](t, resp).Text)

	resp = a.do(http.MethodGet, "/v1/operations", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tools := decode[[]markdown.Tool](t, resp)
	assert.Equal(t, "bold", tools[0].Action)
}

func TestStatelessPreviewIsSanitized(t *testing.T) {
	a := newTestAPI(t)
	resp := a.do(http.MethodPost, "/v1/preview", "", map[string]string{"markdown": "# Hi\n\n<script>alert(1)</script>"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "<h1")
	assert.NotContains(t, string(b), "<script>")
}

func TestDocumentLifecycle(t *testing.T) {
	a := newTestAPI(t)
	tok := a.signUp("ada@example.com")
	d := a.createDoc(tok, "Notes")
	assert.Equal(t, int64(1), d.Version)

	resp := a.do(http.MethodGet, "/v1/documents/"+d.ID, tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tag := resp.Header.Get("ETag")
	assert.Equal(t, `"`+d.Hash()+`"`, tag)

	req, _ := http.NewRequest(http.MethodGet, a.srv.URL+"/v1/documents/"+d.ID, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("If-None-Match", tag)
	cached, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	cached.Body.Close()
	assert.Equal(t, http.StatusNotModified, cached.StatusCode)

	resp = a.do(http.MethodPut, "/v1/documents/"+d.ID, tok, map[string]any{"content": "hello world", "version": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[api.Document](t, resp)
	assert.Equal(t, int64(2), saved.Version)
	assert.Equal(t, "Notes", saved.Title)

	resp = a.do(http.MethodPut, "/v1/documents/"+d.ID, tok, map[string]any{"content": "stale", "version": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = a.do(http.MethodPost, "/v1/documents/"+d.ID+"/format", tok, map[string]any{"start": 0, "end": 5, "operation": "italic"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f := decode[formatDocumentResponse](t, resp)
	assert.Equal(t, "*hello* world", f.Document.Content)
	assert.Equal(t, int64(3), f.Document.Version)

	resp = a.do(http.MethodGet, "/v1/documents/"+d.ID+"/export", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Notes.md")
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "*hello* world", string(b))

	resp = a.do(http.MethodGet, "/v1/documents/"+d.ID+"/preview", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "<em>hello</em>")

	resp = a.do(http.MethodGet, "/v1/documents/"+d.ID+"/history", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]api.Event](t, resp), 3)

	resp = a.do(http.MethodGet, "/v1/documents?limit=10", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[listResponse](t, resp)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, api.PermissionOwner, list.Documents[0].Permission)

	resp = a.do(http.MethodGet, "/v1/documents?cursor=not-a-cursor", tok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = a.do(http.MethodDelete, "/v1/documents/"+d.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = a.do(http.MethodGet, "/v1/documents/"+d.ID, tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSharingPermissions(t *testing.T) {
	a := newTestAPI(t)
	owner := a.signUp("owner@example.com")
	friend := a.signUp("friend@example.com")
	stranger := a.signUp("stranger@example.com")
	d := a.createDoc(owner, "Shared")

	resp := a.do(http.MethodGet, "/v1/documents/"+d.ID, stranger, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(http.MethodPost, "/v1/documents/"+d.ID+"/collaborators", owner, map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(http.MethodPost, "/v1/documents/"+d.ID+"/collaborators", owner, map[string]string{"email": "friend@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[api.Collaborator](t, resp)
	assert.Equal(t, api.PermissionViewer, c.Permission)

	resp = a.do(http.MethodGet, "/v1/documents/"+d.ID, friend, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = a.do(http.MethodPut, "/v1/documents/"+d.ID, friend, map[string]any{"content": "mine now", "version": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = a.do(http.MethodDelete, "/v1/documents/"+d.ID, friend, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(http.MethodGet, "/v1/documents/"+d.ID+"/collaborators", friend, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]api.Collaborator](t, resp), 1)

	resp = a.do(http.MethodDelete, "/v1/documents/"+d.ID+"/collaborators/"+c.ID, owner, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = a.do(http.MethodGet, "/v1/documents/"+d.ID, friend, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(service.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}

func TestRespondErrorLogsCause(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := New(Options{Logger: zap.New(core)})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/documents", nil)
	s.respondError(rec, req, errors.New("disk I/O error: database is locked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "disk I/O error: database is locked", ctx["error"])
	assert.Equal(t, int64(http.StatusInternalServerError), ctx["status"])

	s.respondError(httptest.NewRecorder(), req, service.ErrNotFound)
	assert.Equal(t, 1, logs.Len())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	store, err := db.Open(context.Background(), "mem://")
	require.NoError(t, err)
	defer store.Close()
	s := New(Options{Service: service.New(store, nil), Tokens: auth.NewTokenManager("test-secret-0123456789", time.Hour)})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, Listen{}) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunRequiresTLSForHTTP3(t *testing.T) {
	s := New(Options{})
	err := s.Run(context.Background(), Listen{Addr: "127.0.0.1:0", HTTP3: true})
	require.ErrorIs(t, err, quicnet.ErrMissingTLS)
}
