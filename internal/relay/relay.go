// relay отправляет сообщения во внешний HTTP API от имени пользователя.
//
// Один POST {"to","text"} на api_url, без повторов. Исход всегда
// описывается DeliveryResult; ошибка возвращается только при некорректном
// вызове (пустой URL и т.п.), а не при сбое внешнего API.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/pkg/log"
	"github.com/pribylovaa/robot-helper/internal/pkg/redact"
)

// maxResponseBody — предел чтения ответа внешнего API.
const maxResponseBody = 1 << 20

type payload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Messenger выполняет вызовы внешнего API.
type Messenger struct {
	client  *http.Client
	timeout time.Duration
}

// New создаёт Messenger. client == nil — используется собственный http.Client.
func New(client *http.Client, timeout time.Duration) *Messenger {
	if client == nil {
		client = &http.Client{}
	}

	return &Messenger{client: client, timeout: timeout}
}

// Send выполняет один вызов внешнего API в пределах таймаута.
func (m *Messenger) Send(ctx context.Context, msg models.Message) (*models.DeliveryResult, error) {
	const op = "relay.Send"

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("to", redact.Recipient(msg.To)),
		slog.String("api_host", redact.Host(msg.APIURL)),
	)

	body, err := json.Marshal(payload{To: msg.To, Text: msg.Text})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if msg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+msg.APIToken)
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		lg.Warn("relay_transport_failed",
			slog.String("err", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return &models.DeliveryResult{Error: transportError(ctx, err)}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		lg.Warn("relay_read_failed",
			slog.Int("status", resp.StatusCode),
			slog.String("err", err.Error()),
		)
		return &models.DeliveryResult{StatusCode: resp.StatusCode, Error: "failed to read response body"}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		lg.Warn("relay_upstream_error",
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)),
		)
		return &models.DeliveryResult{
			StatusCode: resp.StatusCode,
			Error:      fmt.Sprintf("upstream responded with status %d", resp.StatusCode),
		}, nil
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		lg.Warn("relay_bad_response",
			slog.Int("status", resp.StatusCode),
		)
		return &models.DeliveryResult{
			StatusCode: resp.StatusCode,
			Error:      "upstream response is not a JSON object",
		}, nil
	}

	lg.Info("relay_delivered",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return &models.DeliveryResult{StatusCode: http.StatusOK, Data: data}, nil
}

func transportError(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "upstream request timed out"
	}

	return "upstream request failed: " + err.Error()
}
