// token выпускает и проверяет подписанные JWT (семейство HMAC).
//
// Каждый токен несёт sub (ID пользователя), exp, iat, iss, jti и typ
// (access|refresh). Любая ошибка проверки — единая ErrInvalidToken:
// вызывающему не сообщается, что именно не так с токеном.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/config"
)

// ErrInvalidToken — токен некорректен, подделан, просрочен или выпущен не нами.
var ErrInvalidToken = errors.New("invalid token")

// Kind — назначение токена (claim typ).
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Claims — полезная нагрузка токена.
type Claims struct {
	Type Kind `json:"typ"`
	jwt.RegisteredClaims
}

// Codec подписывает и проверяет токены. После создания неизменяем.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	now    func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// New создаёт Codec из конфигурации. Допускаются только HS256/HS384/HS512.
func New(cfg config.AuthConfig, opts ...Option) (*Codec, error) {
	const op = "token.New"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: empty secret", op)
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}

	var method jwt.SigningMethod
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%s: unsupported algorithm %q", op, alg)
	}

	c := &Codec{
		secret: []byte(cfg.JWTSecret),
		method: method,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	return c, nil
}

// Issue выпускает токен вида kind для subject со сроком жизни ttl.
// Возвращает токен и абсолютный момент истечения (UTC).
func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration) (string, time.Time, error) {
	const op = "token.Issue"

	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%s: empty subject", op)
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("%s: non-positive ttl", op)
	}

	// JWT хранит время с точностью до секунды.
	now := c.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)

	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// Decode проверяет подпись, алгоритм, срок и издателя токена.
func (c *Codec) Decode(raw string) (*Claims, error) {
	const op = "token.Decode"

	if raw == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		// отвергает ненулевые биты выравнивания в последнем символе сегмента.
		jwt.WithStrictDecoding(),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}

	tok, err := jwt.ParseWithClaims(raw, &Claims{},
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		parserOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// ExpiresAtTime возвращает момент истечения в UTC (нулевое время, если exp нет).
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time.UTC()
}
