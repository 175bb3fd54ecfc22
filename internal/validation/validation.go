// validation проверяет входные данные до бизнес-логики.
//
// Все ошибки — *Error с именем поля и человекочитаемой причиной;
// errors.Is(err, ErrValidation) истинно для любой из них.
package validation

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pribylovaa/robot-helper/internal/models"
)

// ErrValidation — общий маркер ошибок валидации.
var ErrValidation = errors.New("validation failed")

// Error — ошибка валидации конкретного поля.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string { return e.Field + ": " + e.Reason }

func (e *Error) Unwrap() error { return ErrValidation }

func fail(field, reason string) error {
	return &Error{Field: field, Reason: reason}
}

const (
	usernameMin = 5
	usernameMax = 30
	passwordMin = 6
	passwordMax = 128
	nameMin     = 1
	nameMax     = 100

	passwordSymbols = `!@#$%^&*(),.?\/:;{}|><[]`
)

var weakSubstrings = []string{
	"password",
	"123456",
	"qwerty",
	"admin",
	"abc123",
	"111111",
	"123123",
	"321321",
}

// Registration проверяет данные регистрации и возвращает нормализованную копию
// (username и email без внешних пробелов, email в нижнем регистре).
func Registration(in models.RegisterInput) (models.RegisterInput, error) {
	username := strings.TrimSpace(in.Username)
	if err := Username(username); err != nil {
		return in, err
	}

	if err := Password(in.Password); err != nil {
		return in, err
	}

	email, err := Email(in.Email)
	if err != nil {
		return in, err
	}

	if err := FullName(in.FullName); err != nil {
		return in, err
	}

	return models.RegisterInput{
		Username: username,
		Password: in.Password,
		Email:    email,
		FullName: in.FullName,
	}, nil
}

// Username: 5–30 символов, без пробельных символов.
func Username(s string) error {
	n := utf8.RuneCountInString(s)
	if n < usernameMin || n > usernameMax {
		return fail("username", "must be between 5 and 30 characters")
	}

	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return fail("username", "must not contain whitespace")
	}

	return nil
}

// Password: 6–128 символов, минимум одна цифра, одна латинская буква и один
// спецсимвол; не содержит слабых подстрок (без учёта регистра).
func Password(s string) error {
	n := utf8.RuneCountInString(s)
	if n < passwordMin || n > passwordMax {
		return fail("password", "must be between 6 and 128 characters")
	}

	var hasDigit, hasLetter, hasSymbol bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasDigit {
		return fail("password", "must contain at least one digit")
	}
	if !hasLetter {
		return fail("password", "must contain at least one letter")
	}
	if !hasSymbol {
		return fail("password", "must contain at least one special character")
	}

	lower := strings.ToLower(s)
	for _, weak := range weakSubstrings {
		if strings.Contains(lower, weak) {
			return fail("password", "is too weak")
		}
	}

	return nil
}

// Email проверяет синтаксис адреса и возвращает его в нормализованном виде.
// Допускается только «голый» адрес, без отображаемого имени.
func Email(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fail("email", "is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fail("email", "is not a valid email address")
	}

	return strings.ToLower(email), nil
}

// FullName: 1–100 символов.
func FullName(s string) error {
	n := utf8.RuneCountInString(s)
	if n < nameMin || n > nameMax {
		return fail("full_name", "must be between 1 and 100 characters")
	}

	return nil
}

// UserUpdate проверяет частичное обновление профиля (nil-поля не проверяются).
func UserUpdate(in models.UserUpdate) error {
	if in.FullName != nil {
		if err := FullName(*in.FullName); err != nil {
			return err
		}
	}

	if in.Password != nil {
		if err := Password(*in.Password); err != nil {
			return err
		}
	}

	return nil
}

// ScriptName: 1–100 символов.
func ScriptName(s string) error {
	n := utf8.RuneCountInString(s)
	if n < nameMin || n > nameMax {
		return fail("name", "must be between 1 and 100 characters")
	}

	return nil
}

// Script проверяет данные создания скрипта.
func Script(in models.ScriptInput) error {
	if err := ScriptName(in.Name); err != nil {
		return err
	}

	if in.Content == "" {
		return fail("content", "is required")
	}

	return nil
}

// ScriptUpdate проверяет частичное обновление скрипта.
func ScriptUpdate(in models.ScriptUpdate) error {
	if in.Name != nil {
		if err := ScriptName(*in.Name); err != nil {
			return err
		}
	}

	if in.Content != nil && *in.Content == "" {
		return fail("content", "is required")
	}

	return nil
}

// Message проверяет запрос на отправку: адресат и текст непусты,
// api_url — абсолютный http/https URL.
func Message(m models.Message) error {
	if strings.TrimSpace(m.To) == "" {
		return fail("to", "is required")
	}

	if m.Text == "" {
		return fail("text", "is required")
	}

	u, err := url.Parse(m.APIURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fail("api_url", "must be an absolute http or https URL")
	}

	return nil
}
