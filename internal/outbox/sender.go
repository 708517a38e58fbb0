// Package outbox queues outgoing texts locally and drains them to the
// gateway in order.
package outbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/wuzdash/internal/bus"
	"github.com/matheus3301/wuzdash/internal/gateway"
	"github.com/matheus3301/wuzdash/internal/metrics"
	"github.com/matheus3301/wuzdash/internal/store"
	"github.com/matheus3301/wuzdash/internal/wa"
)

// TextSender delivers one text through the gateway.
type TextSender interface {
	SendText(ctx context.Context, phone, body, id string) (*gateway.SendResult, error)
}

// Route returns the sender that acts as the instance behind token.
type Route func(token string) TextSender

// ClientRoute sends each entry through a copy of c bound to the entry's token.
func ClientRoute(c *gateway.Client) Route {
	return func(token string) TextSender { return c.WithUserToken(token) }
}

// DefaultInterval is how often the queue is checked.
const DefaultInterval = 500 * time.Millisecond

// SendAck is the payload of message.send_ack.
type SendAck struct {
	ClientMsgID string
	ServerMsgID string
	Phone       string
}

// SendFailure is the payload of message.send_failed.
type SendFailure struct {
	ClientMsgID string
	Phone       string
	Error       string
	Retrying    bool
}

// Sender drains the outbox and sends messages through the gateway. Every
// entry is sent as the instance that was active when it was queued.
type Sender struct {
	db       *store.DB
	tokens   gateway.Credentials
	route    Route
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration
	cancel   context.CancelFunc
}

// NewSender creates an outbox sender. tokens supplies the active instance
// token at enqueue time.
func NewSender(db *store.DB, tokens gateway.Credentials, route Route, b *bus.Bus, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		db:       db,
		tokens:   tokens,
		route:    route,
		bus:      b,
		logger:   logger,
		interval: DefaultInterval,
	}
}

// Enqueue validates and queues a text, returning its client message id.
func (s *Sender) Enqueue(phone, body string) (string, error) {
	phone = wa.PhoneOf(strings.TrimPrefix(strings.TrimSpace(phone), "+"))
	if phone == "" {
		return "", &gateway.ValidationError{Field: "phone", Message: "phone is required"}
	}
	if strings.TrimSpace(body) == "" {
		return "", &gateway.ValidationError{Field: "body", Message: "message is empty"}
	}
	token, err := s.tokens.UserToken()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", &gateway.ValidationError{Field: "token", Message: "no instance selected"}
	}
	id := uuid.NewString()
	if err := s.db.QueueOutbox(id, token, phone, body); err != nil {
		return "", err
	}
	return id, nil
}

// Start begins polling the outbox for pending messages.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Drain(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Drain sends every queued entry. A transport failure puts the entry back
// and ends the pass so order is kept; any other failure is final.
func (s *Sender) Drain(ctx context.Context) {
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			continue
		}

		if entry.Token == "" {
			s.fail(entry, errors.New("queued without an instance"), false)
			continue
		}
		res, err := s.route(entry.Token).SendText(ctx, entry.Phone, entry.Body, entry.ClientMsgID)
		if err != nil {
			var te *gateway.TransportError
			retry := errors.As(err, &te) && !gateway.IsUnauthorized(err)
			s.fail(entry, err, retry)
			if retry {
				return
			}
			continue
		}

		serverMsgID := res.ID
		if err := s.db.MarkOutboxSent(entry.ClientMsgID, serverMsgID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
		}
		metrics.OutboxSentTotal.Inc()
		s.logger.Info("message sent", zap.String("client_msg_id", entry.ClientMsgID), zap.String("server_msg_id", serverMsgID))
		s.bus.Emit(bus.KindSendAck, SendAck{
			ClientMsgID: entry.ClientMsgID,
			ServerMsgID: serverMsgID,
			Phone:       entry.Phone,
		})
	}
}

// Abandon fails every undelivered entry, for when the credentials that
// queued them are gone.
func (s *Sender) Abandon(reason string) error {
	n, err := s.db.FailQueuedOutbox(reason)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.OutboxFailedTotal.Add(float64(n))
		s.logger.Info("abandoned queued messages", zap.Int64("count", n), zap.String("reason", reason))
	}
	return nil
}

func (s *Sender) fail(entry store.OutboxEntry, err error, retry bool) {
	s.logger.Warn("failed to send message", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID), zap.Bool("retrying", retry))
	if retry {
		if rerr := s.db.RequeueOutbox(entry.ClientMsgID); rerr != nil {
			s.logger.Error("failed to requeue", zap.Error(rerr))
		}
	} else {
		metrics.OutboxFailedTotal.Inc()
		_ = s.db.MarkOutboxFailed(entry.ClientMsgID, gateway.Message(err))
	}
	s.bus.Emit(bus.KindSendFailed, SendFailure{
		ClientMsgID: entry.ClientMsgID,
		Phone:       entry.Phone,
		Error:       gateway.Message(err),
		Retrying:    retry,
	})
}
