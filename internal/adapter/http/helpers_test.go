package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adapthttp "kanba/internal/adapter/http"
	"kanba/internal/adapter/memory"
	"kanba/internal/app"
	"kanba/internal/domain"
)

// clock is a fixed, advanceable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// spyUsers counts UpdateName calls on top of the memory store.
type spyUsers struct {
	*memory.DB
	updates atomic.Int32
}

func (s *spyUsers) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	s.updates.Add(1)
	return s.DB.UpdateName(ctx, id, name)
}

// spySessions counts lookups on top of the memory session store.
type spySessions struct {
	domain.SessionRepository
	resolves atomic.Int32
}

func (s *spySessions) ResolveUserID(ctx context.Context, id string, now time.Time) (string, error) {
	s.resolves.Add(1)
	return s.SessionRepository.ResolveUserID(ctx, id, now)
}

// brokenHasher fails every Hash call.
type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) { return "", errors.New("entropy exhausted") }
func (brokenHasher) Verify(string, string) bool  { return false }

type mockCompleter struct {
	completeFn func(ctx context.Context, apiKey string, msgs []domain.ChatMessage) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, apiKey string, msgs []domain.ChatMessage) (string, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, apiKey, msgs)
	}
	return "ok", nil
}

type testEnv struct {
	url      string
	clock    *clock
	users    *spyUsers
	sessions *spySessions
}

type envOptions struct {
	cfg      adapthttp.Config
	chat     domain.ChatCompleter
	chatKey  string
	sso      *adapthttp.SSOConfig
	hasher   app.Hasher
	noClient bool
}

func newTestEnv(t *testing.T, opts ...func(*envOptions)) *testEnv {
	t.Helper()

	o := envOptions{
		cfg:     adapthttp.Config{FrontendURL: "http://localhost:5173"},
		chat:    &mockCompleter{},
		chatKey: "server-key",
		hasher:  app.NewPasswordHasher(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.noClient {
		o.chat = nil
	}

	db := memory.New()
	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	users := &spyUsers{DB: db}
	sessions := &spySessions{SessionRepository: db.NewSessionRepo()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := app.NewSessionManager(sessions, app.WithClock(c.Now), app.WithSessionLogger(logger))
	auth := app.NewAuthService(users, manager, o.hasher, logger)
	board := app.NewBoardService(db, db)
	chat := app.NewChatService(o.chat, o.chatKey)

	srv := adapthttp.New(auth, board, chat, o.cfg).WithLogger(logger).WithSSO(o.sso)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{url: ts.URL, clock: c, users: users, sessions: sessions}
}

// newClient returns a client with its own cookie jar that does not follow
// redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type result struct {
	status int
	header http.Header
	raw    []byte
	body   map[string]any
}

func (r result) cookie(name string) *http.Cookie {
	resp := http.Response{Header: r.header}
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (e *testEnv) do(t *testing.T, c *http.Client, method, path string, body any, mutate ...func(*http.Request)) result {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, e.url+path, rd)
	require.NoError(t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := result{status: resp.StatusCode, header: resp.Header, raw: raw}
	_ = json.Unmarshal(raw, &res.body)
	return res
}

// register creates an account and returns a client holding its session.
func (e *testEnv) register(t *testing.T, email, name string) *http.Client {
	t.Helper()
	c := newClient(t)
	res := e.do(t, c, http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "password": "hunter22", "name": name,
	})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	return c
}

func userField(t *testing.T, res result, field string) any {
	t.Helper()
	u, ok := res.body["user"].(map[string]any)
	require.True(t, ok, "user is not an object: %s", res.raw)
	return u[field]
}
