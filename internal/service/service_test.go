package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/robot-helper/internal/cache"
	"github.com/pribylovaa/robot-helper/internal/config"
	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/password"
	logctx "github.com/pribylovaa/robot-helper/internal/pkg/log"
	"github.com/pribylovaa/robot-helper/internal/token"
	"github.com/pribylovaa/robot-helper/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:              "unit-secret",
		Algorithm:              "HS256",
		AccessTokenTTLMinutes:  15,
		RefreshTokenTTLMinutes: 60,
		Issuer:                 "robot-helper",
		BcryptCost:             bcrypt.MinCost,
	}
}

// testClock — управляемые часы, общие для кодека и сервиса.
type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc    *Service
	st     *mocks.MockStorage
	codec  *token.Codec
	hasher *password.Hasher
	clock  *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	clk := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	codec, err := token.New(testCfg(), token.WithClock(clk.Now))
	require.NoError(t, err)
	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	svc := New(st, codec, hasher, testCfg())
	svc.SetClock(clk.Now)

	return &fixture{svc: svc, st: st, codec: codec, hasher: hasher, clock: clk}
}

// withDenylist подключает denylist поверх miniredis.
func (f *fixture) withDenylist(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f.svc.SetDenylist(cache.NewFromClient(rdb, "test:"))
	return mr
}

func (f *fixture) mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := f.hasher.Hash(pw)
	require.NoError(t, err)
	return h
}

func (f *fixture) issue(t *testing.T, subject string, kind token.Kind, ttl time.Duration) string {
	t.Helper()
	raw, _, err := f.codec.Issue(subject, kind, ttl)
	require.NoError(t, err)
	return raw
}

func activeUser(email string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "someone",
		Email:    email,
		IsActive: true,
	}
}

func ptr(s string) *string { return &s }

func bg() context.Context { return context.Background() }

// captureLog возвращает контекст с JSON-логгером, пишущим в буфер.
func captureLog() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logctx.Into(context.Background(), l), &buf
}
