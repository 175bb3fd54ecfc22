package models

import "time"

// TokenPair — пара токенов, выдаваемая при логине и обновлении.
//
// Описание:
//   - AccessToken — короткоживущий JWT (typ=access) для защищённых вызовов;
//   - RefreshToken — долгоживущий JWT (typ=refresh), обменивается только на новую пару;
//   - AccessExpiresAt/RefreshExpiresAt — моменты истечения (UTC).
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
