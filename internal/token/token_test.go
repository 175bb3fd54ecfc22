package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/robot-helper/internal/config"
)

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret: "unit-test-secret",
		Algorithm: "HS256",
		Issuer:    "robot-helper",
	}
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCodec(t *testing.T) (*Codec, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c, err := New(testAuthCfg(), WithClock(clk.Now))
	require.NoError(t, err)
	return c, clk
}

func TestIssueDecode_RoundTrip(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t)

	raw, exp, err := c.Issue("user-1", Access, 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, clk.t.Add(30*time.Minute), exp)

	claims, err := c.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, Access, claims.Type)
	require.Equal(t, "robot-helper", claims.Issuer)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, exp, claims.ExpiresAtTime())
}

func TestIssue_UniqueJTI(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t)

	a, _, err := c.Issue("u", Refresh, time.Hour)
	require.NoError(t, err)
	b, _, err := c.Issue("u", Refresh, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	ca, err := c.Decode(a)
	require.NoError(t, err)
	cb, err := c.Decode(b)
	require.NoError(t, err)
	require.NotEqual(t, ca.ID, cb.ID)
	require.Equal(t, Refresh, ca.Type)
}

func TestIssue_RejectsBadInput(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t)

	_, _, err := c.Issue("", Access, time.Minute)
	require.Error(t, err)

	_, _, err = c.Issue("u", Access, 0)
	require.Error(t, err)
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t)

	raw, _, err := c.Issue("u", Access, time.Minute)
	require.NoError(t, err)

	clk.t = clk.t.Add(59 * time.Second)
	_, err = c.Decode(raw)
	require.NoError(t, err)

	clk.t = clk.t.Add(2 * time.Second)
	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// TestDecode_ByteFlip — замена любого символа токена любым другим символом
// base64url (или точкой) делает его недействительным, включая последний
// символ каждого сегмента.
func TestDecode_ByteFlip(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		alg := alg
		t.Run(alg, func(t *testing.T) {
			t.Parallel()

			cfg := testAuthCfg()
			cfg.Algorithm = alg
			clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
			c, err := New(cfg, WithClock(clk.Now))
			require.NoError(t, err)

			raw, _, err := c.Issue("u", Access, time.Hour)
			require.NoError(t, err)

			for i := 0; i < len(raw); i++ {
				for _, sub := range []byte(base64URLAlphabet + ".") {
					if sub == raw[i] {
						continue
					}
					b := []byte(raw)
					b[i] = sub
					_, err := c.Decode(string(b))
					require.ErrorIs(t, err, ErrInvalidToken, "pos %d %q->%q", i, raw[i], sub)
				}
			}
		})
	}
}

// TestDecode_SegmentPaddingBits — символ, отличающийся лишь младшими битами
// выравнивания в конце подписи, не проходит проверку.
func TestDecode_SegmentPaddingBits(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t)

	raw, _, err := c.Issue("u", Access, time.Hour)
	require.NoError(t, err)

	last := len(raw) - 1
	idx := strings.IndexByte(base64URLAlphabet, raw[last])
	require.GreaterOrEqual(t, idx, 0)

	for low := 1; low < 4; low++ {
		b := []byte(raw)
		b[last] = base64URLAlphabet[idx^low]
		_, err := c.Decode(string(b))
		require.ErrorIs(t, err, ErrInvalidToken, "%q->%q", raw[last], b[last])
	}
}

func TestDecode_Garbage(t *testing.T) {
	t.Parallel()
	c, _ := newTestCodec(t)

	for _, raw := range []string{"", "abc", "a.b.c", "not.a.jwt.at.all"} {
		_, err := c.Decode(raw)
		require.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestDecode_WrongSecret_WrongAlg_WrongIssuer(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t)

	base := jwt.MapClaims{
		"sub": "u",
		"typ": "access",
		"iss": "robot-helper",
		"iat": clk.t.Unix(),
		"exp": clk.t.Add(time.Hour).Unix(),
	}

	t.Run("wrong_secret", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, base).SignedString([]byte("other"))
		require.NoError(t, err)
		_, err = c.Decode(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong_alg", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, base).SignedString([]byte("unit-test-secret"))
		require.NoError(t, err)
		_, err = c.Decode(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg_none", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, base).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = c.Decode(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong_issuer", func(t *testing.T) {
		claims := jwt.MapClaims{}
		for k, v := range base {
			claims[k] = v
		}
		claims["iss"] = "someone-else"
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
		require.NoError(t, err)
		_, err = c.Decode(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no_exp", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "iss": "robot-helper"}).
			SignedString([]byte("unit-test-secret"))
		require.NoError(t, err)
		_, err = c.Decode(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNew_Algorithms(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"HS256", "HS384", "HS512", ""} {
		cfg := testAuthCfg()
		cfg.Algorithm = alg
		c, err := New(cfg)
		require.NoError(t, err, alg)

		raw, _, err := c.Issue("u", Access, time.Minute)
		require.NoError(t, err)
		_, err = c.Decode(raw)
		require.NoError(t, err)
	}

	for _, alg := range []string{"RS256", "none", "hs256"} {
		cfg := testAuthCfg()
		cfg.Algorithm = alg
		_, err := New(cfg)
		require.Error(t, err, alg)
	}

	cfg := testAuthCfg()
	cfg.JWTSecret = ""
	_, err := New(cfg)
	require.Error(t, err)
}
