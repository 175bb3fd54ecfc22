package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/storage"
)

const scriptColumns = `id, owner_id, name, content, created_at, updated_at`

func scanScript(row pgx.Row) (*models.Script, error) {
	var script models.Script
	if err := row.Scan(
		&script.ID,
		&script.OwnerID,
		&script.Name,
		&script.Content,
		&script.CreatedAt,
		&script.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &script, nil
}

// SaveScript создаёт скрипт. Несуществующий владелец -> storage.ErrNotFound.
func (s *Storage) SaveScript(ctx context.Context, script *models.Script) error {
	const op = "storage.postgres.SaveScript"

	query := `
		INSERT INTO scripts(id, owner_id, name, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.Exec(ctx, query,
		script.ID,
		script.OwnerID,
		script.Name,
		script.Content,
		script.CreatedAt,
		script.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ForeignKeyViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			case pgerrcode.UniqueViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ScriptByID находит скрипт по ID.
func (s *Storage) ScriptByID(ctx context.Context, id uuid.UUID) (*models.Script, error) {
	const op = "storage.postgres.ScriptByID"

	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE id = $1`

	script, err := scanScript(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return script, nil
}

// ScriptsByOwner возвращает скрипты владельца, новые первыми.
// Пустой результат — пустой срез, не ошибка.
func (s *Storage) ScriptsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Script, error) {
	const op = "storage.postgres.ScriptsByOwner"

	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE owner_id = $1 ORDER BY created_at DESC, id`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	scripts := make([]*models.Script, 0)
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		scripts = append(scripts, script)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scripts, nil
}

// UpdateScript сохраняет name, content и updated_at.
func (s *Storage) UpdateScript(ctx context.Context, script *models.Script) error {
	const op = "storage.postgres.UpdateScript"

	query := `
		UPDATE scripts
		SET name = $2, content = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, script.ID, script.Name, script.Content, script.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteScript удаляет скрипт.
func (s *Storage) DeleteScript(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteScript"

	tag, err := s.db.Exec(ctx, `DELETE FROM scripts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
