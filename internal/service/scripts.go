package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/pkg/log"
	"github.com/pribylovaa/robot-helper/internal/storage"
	"github.com/pribylovaa/robot-helper/internal/validation"
)

// CreateScript создаёт скрипт, принадлежащий ownerID.
func (s *Service) CreateScript(ctx context.Context, ownerID uuid.UUID, in models.ScriptInput) (*models.Script, error) {
	const op = "service.scripts.CreateScript"

	if err := validation.Script(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	script := &models.Script{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.SaveScript(ctx, script); err != nil {
		// владелец удалён между аутентификацией и вставкой.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("script_created",
		slog.String("user_id", ownerID.String()),
		slog.String("script_id", script.ID.String()),
	)

	return script, nil
}

// ListScripts возвращает скрипты владельца.
func (s *Service) ListScripts(ctx context.Context, ownerID uuid.UUID) ([]*models.Script, error) {
	const op = "service.scripts.ListScripts"

	scripts, err := s.storage.ScriptsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scripts, nil
}

// ownedScript возвращает скрипт, только если он принадлежит ownerID;
// чужой скрипт неотличим от несуществующего.
func (s *Service) ownedScript(ctx context.Context, ownerID, id uuid.UUID) (*models.Script, error) {
	script, err := s.storage.ScriptByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrScriptNotFound
		}

		return nil, err
	}

	if script.OwnerID != ownerID {
		return nil, ErrScriptNotFound
	}

	return script, nil
}

// GetScript возвращает скрипт владельца.
func (s *Service) GetScript(ctx context.Context, ownerID, id uuid.UUID) (*models.Script, error) {
	const op = "service.scripts.GetScript"

	script, err := s.ownedScript(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return script, nil
}

// UpdateScript частично обновляет скрипт владельца.
func (s *Service) UpdateScript(ctx context.Context, ownerID, id uuid.UUID, upd models.ScriptUpdate) (*models.Script, error) {
	const op = "service.scripts.UpdateScript"

	if err := validation.ScriptUpdate(upd); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	script, err := s.ownedScript(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if upd.Name != nil {
		script.Name = *upd.Name
	}
	if upd.Content != nil {
		script.Content = *upd.Content
	}
	script.UpdatedAt = s.now().UTC()

	if err := s.storage.UpdateScript(ctx, script); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrScriptNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return script, nil
}

// DeleteScript удаляет скрипт владельца.
func (s *Service) DeleteScript(ctx context.Context, ownerID, id uuid.UUID) error {
	const op = "service.scripts.DeleteScript"

	if _, err := s.ownedScript(ctx, ownerID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteScript(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrScriptNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("script_deleted",
		slog.String("user_id", ownerID.String()),
		slog.String("script_id", id.String()),
	)

	return nil
}
