package models

import (
	"time"

	"github.com/google/uuid"
)

// Script — текстовый шаблон пользователя с плейсхолдерами вида {{variable}}.
type Script struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScriptInput — данные создания скрипта.
type ScriptInput struct {
	Name    string
	Content string
}

// ScriptUpdate — частичное обновление скрипта: nil означает «не менять».
type ScriptUpdate struct {
	Name    *string
	Content *string
}
