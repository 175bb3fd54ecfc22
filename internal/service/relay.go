package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/pkg/log"
	"github.com/pribylovaa/robot-helper/internal/pkg/redact"
	"github.com/pribylovaa/robot-helper/internal/validation"
)

// SendMessage отправляет сообщение во внешний API от имени userID.
// Сбой внешнего API — не ошибка: он описывается в DeliveryResult.
func (s *Service) SendMessage(ctx context.Context, userID uuid.UUID, msg models.Message) (*models.DeliveryResult, error) {
	const op = "service.relay.SendMessage"

	if err := validation.Message(msg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.messenger == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrRelayUnavailable)
	}

	res, err := s.messenger.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("message_relayed",
		slog.String("user_id", userID.String()),
		slog.String("to", redact.Recipient(msg.To)),
		slog.String("api_host", redact.Host(msg.APIURL)),
		slog.Int("status", res.StatusCode),
		slog.Bool("ok", res.Error == ""),
	)

	return res, nil
}
