package webhook

import (
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"basegraph.app/mergebot/common/id"
	"basegraph.app/mergebot/common/logger"
	"basegraph.app/mergebot/internal/event"
	"basegraph.app/mergebot/internal/mapper"
	"basegraph.app/mergebot/internal/queue"
)

// maxBodyBytes bounds webhook payloads; GitLab pipeline hooks with many
// builds are the largest deliveries we accept.
const maxBodyBytes = 5 << 20

type GitLabConfig struct {
	Secret          string
	TraceHeaderName string
	NewID           func() int64 // defaults to id.New
}

type GitLabWebhookHandler struct {
	mapper   mapper.EventMapper
	producer queue.Producer
	cfg      GitLabConfig
}

func NewGitLabWebhookHandler(m mapper.EventMapper, producer queue.Producer, cfg GitLabConfig) *GitLabWebhookHandler {
	if cfg.NewID == nil {
		cfg.NewID = id.New
	}
	return &GitLabWebhookHandler{
		mapper:   m,
		producer: producer,
		cfg:      cfg,
	}
}

func (h *GitLabWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		Component: "mergebot.webhook.gitlab",
	})

	token := c.GetHeader("X-Gitlab-Token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing webhook token"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.Secret)) != 1 {
		slog.WarnContext(ctx, "gitlab webhook with invalid token", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	eventType := string(gitlab.HookEventType(c.Request))
	events, err := h.mapper.Map(ctx, eventType, body)
	if err != nil {
		if errors.Is(err, mapper.ErrUnsupportedEvent) {
			slog.DebugContext(ctx, "ignoring unsupported gitlab event", "gitlab_event", eventType)
			c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "event type not supported"})
			return
		}
		slog.WarnContext(ctx, "invalid gitlab webhook payload", "gitlab_event", eventType, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	traceID := logger.TraceID(ctx)
	if traceID == "" && h.cfg.TraceHeaderName != "" {
		traceID = c.GetHeader(h.cfg.TraceHeaderName)
	}

	deliveries := make([]int64, 0, len(events))
	for _, ev := range events {
		deliveryID := h.cfg.NewID()
		evCtx := logger.WithLogFields(ctx, logger.LogFields{
			DeliveryID: logger.Ptr(deliveryID),
			EventKind:  logger.Ptr(string(ev.Kind())),
		})
		if repo, ok := event.RepositoryOf(ev); ok {
			evCtx = logger.WithLogFields(evCtx, logger.LogFields{Repository: logger.Ptr(repo.String())})
		}

		if err := h.producer.Enqueue(evCtx, queue.EventMessage{
			DeliveryID: deliveryID,
			Event:      ev,
			TraceID:    traceID,
		}); err != nil {
			slog.ErrorContext(evCtx, "failed to enqueue event", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue event"})
			return
		}
		deliveries = append(deliveries, deliveryID)
	}

	slog.InfoContext(ctx, "gitlab webhook processed", "gitlab_event", eventType, "events", len(events))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "deliveries": deliveries})
}
