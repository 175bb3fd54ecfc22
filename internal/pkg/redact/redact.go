// redact предоставляет утилиты безопасного редактирования чувствительных
// данных для логов (e-mail, адресаты сообщений, URL, токены, пароли).
// Полезный для отладки контекст (домен e-mail, хост внешнего API) сохраняется.
package redact

import (
	"net/url"
	"strings"
)

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать РОВНО один символ '@', иначе возвращается "***";
//   - локальная часть заменяется на первые два символа (по рунам) + "***";
//   - если локальная часть не длиннее 2 символов — "***@<domain>";
//   - доменная часть возвращается без изменений.
//
// Примеры:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Recipient маскирует адресата сообщения (телефон, chat_id, e-mail):
// e-mail обрабатывается как в Email, иначе остаются последние 2 символа.
func Recipient(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}

	r := []rune(s)
	if len(r) <= 4 {
		return "***"
	}

	return "***" + string(r[len(r)-2:])
}

// Host возвращает только scheme://host из URL: путь и query могут содержать
// ключи API, userinfo — пароль.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}

	return u.Scheme + "://" + u.Host
}

// Token возвращает литерал-заглушку для токена в логах.
func Token() string { return "[REDACTED_TOKEN]" }

// Password возвращает литерал-заглушку для пароля в логах.
func Password() string { return "[REDACTED_PASSWORD]" }
