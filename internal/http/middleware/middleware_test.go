package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	logctx "github.com/pribylovaa/robot-helper/internal/pkg/log"
	"github.com/pribylovaa/robot-helper/internal/service"
)

// capHandler — тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs последней записи в map[string]any.
type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type errEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func decodeEnv(t *testing.T, rr *httptest.ResponseRecorder) errEnvelope {
	t.Helper()
	var env errEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func TestChain_Order(t *testing.T) {
	order := []string{}

	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mk("m1"), mk("m2")).ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenHeader, seenCtx string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeader = r.Header.Get("X-Request-Id")
		seenCtx = RequestIDFrom(r.Context())
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get("X-Request-Id")
	require.Len(t, respID, 32) // 16 байт → 32 hex-символа
	require.Equal(t, respID, seenHeader)
	require.Equal(t, respID, seenCtx)
}

func TestRequestID_UseExisting_RejectOversized(t *testing.T) {
	rr := httptest.NewRecorder()
	req := makeReq("/rid")
	req.Header.Set("X-Request-Id", "given-id")
	Chain(http.NotFoundHandler(), RequestID()).ServeHTTP(rr, req)
	require.Equal(t, "given-id", rr.Header().Get("X-Request-Id"))

	rr = httptest.NewRecorder()
	req = makeReq("/rid")
	req.Header.Set("X-Request-Id", strings.Repeat("x", 200))
	Chain(http.NotFoundHandler(), RequestID()).ServeHTTP(rr, req)
	require.Len(t, rr.Header().Get("X-Request-Id"), 32)
}

func TestLogging_RequestScopedLoggerAndAccessRecord(t *testing.T) {
	ch := &capHandler{}
	var inner *slog.Logger

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = logctx.From(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})

	rr := httptest.NewRecorder()
	req := makeReq("/users/login?refresh_token=SECRET")
	Chain(h, RequestID(), Logging(slog.New(ch))).ServeHTTP(rr, req)

	require.NotNil(t, inner)
	require.Equal(t, "http", ch.lastMsg)
	require.Equal(t, slog.LevelInfo, ch.lastLvl)
	require.Equal(t, int64(http.StatusCreated), ch.attrs["status"])
	require.Equal(t, int64(5), ch.attrs["bytes"])
	require.Equal(t, "/users/login", ch.attrs["path"])
	require.Equal(t, rr.Header().Get("X-Request-Id"), ch.attrs["request_id"])
	for _, v := range ch.attrs {
		if s, ok := v.(string); ok {
			require.NotContains(t, s, "SECRET")
		}
	}
}

func TestLogging_ServerErrorAtErrorLevel(t *testing.T) {
	ch := &capHandler{}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	Chain(h, Logging(slog.New(ch))).ServeHTTP(httptest.NewRecorder(), makeReq("/x"))
	require.Equal(t, slog.LevelError, ch.lastLvl)
}

func TestTimeout_SetsDeadline_WhenAbsent(t *testing.T) {
	var hasDeadline bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})

	Chain(h, Timeout(50*time.Millisecond)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout"))
	require.True(t, hasDeadline)
}

func TestTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	var childDL time.Time
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		childDL, _ = r.Context().Deadline()
	})

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout2").WithContext(parent))

	parentDL, _ := parent.Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestTimeout_TightensLaterDeadline(t *testing.T) {
	var childDL time.Time
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		childDL, _ = r.Context().Deadline()
	})

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	start := time.Now()
	Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout3").WithContext(parent))

	require.WithinDuration(t, start.Add(time.Second), childDL, 100*time.Millisecond)
}

func TestTimeout_LogsExceededDeadline(t *testing.T) {
	ch := &capHandler{}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	req := makeReq("/slow")
	req = req.WithContext(logctx.Into(req.Context(), slog.New(ch)))
	Chain(h, Timeout(10*time.Millisecond)).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "request_deadline_exceeded", ch.lastMsg)
	require.Equal(t, "/slow", ch.attrs["path"])
}

func TestTimeout_ZeroIsNoop(t *testing.T) {
	var hasDeadline bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})

	Chain(h, Timeout(0)).ServeHTTP(httptest.NewRecorder(), makeReq("/t"))
	require.False(t, hasDeadline)
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom: secret detail")
	})

	rr := httptest.NewRecorder()
	req := makeReq("/panic")
	req.Header.Set("X-Request-Id", "rid-9")
	Chain(panicHandler, Recover()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.NotContains(t, rr.Body.String(), "secret detail")

	env := decodeEnv(t, rr)
	require.Equal(t, "internal", env.Error.Code)
	require.Equal(t, "rid-9", env.Error.RequestID)
}

// fakeResolver принимает только токен "good".
type fakeResolver struct {
	uid uuid.UUID
}

func (f fakeResolver) ResolveIdentity(_ context.Context, bearer string) (uuid.UUID, error) {
	switch bearer {
	case "":
		return uuid.Nil, service.ErrUnauthenticated
	case "good":
		return f.uid, nil
	default:
		return uuid.Nil, service.ErrInvalidToken
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "Bearer abc", want: "abc"},
		{header: "bearer abc", want: "abc"},
		{header: "Bearer  abc ", want: "abc"},
		{header: "Basic abc", want: ""},
		{header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		req := makeReq("/")
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		require.Equal(t, tt.want, BearerToken(req), tt.header)
	}
}

func TestRequireAuth(t *testing.T) {
	uid := uuid.New()
	var seen uuid.UUID
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFrom(r.Context())
	})
	chain := Chain(h, RequireAuth(fakeResolver{uid: uid}))

	t.Run("ok", func(t *testing.T) {
		req := makeReq("/p")
		req.Header.Set("Authorization", "Bearer good")
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, uid, seen)
	})

	t.Run("missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, makeReq("/p"))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Equal(t, "unauthenticated", decodeEnv(t, rr).Error.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		req := makeReq("/p")
		req.Header.Set("Authorization", "Bearer bad")
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.Equal(t, "invalid_token", decodeEnv(t, rr).Error.Code)
	})
}

// fakeLimiter разрешает первые n запросов по ключу.
type fakeLimiter struct {
	n    int
	seen map[string]int
	err  error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.seen == nil {
		f.seen = map[string]int{}
	}
	f.seen[key]++
	if f.seen[key] > f.n {
		return &redis_rate.Result{Limit: limit, Allowed: 0, Remaining: 0, RetryAfter: 1500 * time.Millisecond}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: f.n - f.seen[key]}, nil
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	lim := &fakeLimiter{n: 2}
	chain := Chain(http.NotFoundHandler(), RateLimit(lim, "t:", 2))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, makeReq("/users/login"))
		require.Equal(t, http.StatusNotFound, rr.Code)
	}

	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/users/login"))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "2", rr.Header().Get("Retry-After"))
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "resource_exhausted", decodeEnv(t, rr).Error.Code)

	// другой маршрут — отдельный бюджет.
	rr = httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/users/register"))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, lim.seen, "t:rl:/users/login:127.0.0.1")
}

func TestRateLimit_FailOpenAndNoop(t *testing.T) {
	rr := httptest.NewRecorder()
	Chain(http.NotFoundHandler(), RateLimit(&fakeLimiter{err: errors.New("redis down")}, "", 1)).
		ServeHTTP(rr, makeReq("/users/login"))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	Chain(http.NotFoundHandler(), RateLimit(nil, "", 1)).ServeHTTP(rr, makeReq("/users/login"))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/metrics-test/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/metrics-test/{id}", "202"))

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), makeReq("/metrics-test/"+id))
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/metrics-test/{id}", "202"))
	require.Equal(t, before+2, after)
}
