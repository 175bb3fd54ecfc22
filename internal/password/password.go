// password хэширует и проверяет пароли через bcrypt.
//
// bcrypt учитывает только первые 72 байта пароля; более длинные пароли
// сначала сворачиваются в SHA-256 (base64), чтобы хвост не отбрасывался молча.
package password

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxBcryptInput — предел длины входа bcrypt в байтах.
const maxBcryptInput = 72

// Hasher хэширует пароли с фиксированной стоимостью.
// Безопасен для конкурентного использования.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher создаёт Hasher; cost приводится к диапазону [bcrypt.MinCost, bcrypt.MaxCost].
func NewHasher(cost int) (*Hasher, error) {
	const op = "password.NewHasher"

	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	// Хэш-заглушка той же стоимости: проверка против него занимает
	// столько же времени, сколько против настоящего.
	dummy, err := bcrypt.GenerateFromPassword([]byte("robot-helper-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Hasher{cost: cost, dummy: dummy}, nil
}

// Cost возвращает фактическую стоимость bcrypt.
func (h *Hasher) Cost() int { return h.cost }

// Hash возвращает солёный bcrypt-хэш пароля.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"

	b, err := bcrypt.GenerateFromPassword(prepare(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// Verify сравнивает пароль с хэшем. Некорректный хэш — false.
func (h *Hasher) Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(plain)) == nil
}

// VerifyDummy выполняет проверку против хэша-заглушки и всегда возвращает false.
// Используется, когда пользователь не найден.
func (h *Hasher) VerifyDummy(plain string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, prepare(plain))
	return false
}

func prepare(plain string) []byte {
	if len(plain) <= maxBcryptInput {
		return []byte(plain)
	}

	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
