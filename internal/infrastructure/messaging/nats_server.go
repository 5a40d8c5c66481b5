package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ErrEmptyRequest is returned for requests with neither transactions nor a range
var ErrEmptyRequest = errors.New("request carries no transactions and no time range")

// AnalysisRequest is the body of a message on <prefix>.analyze.
// Either Transactions or Range must be set; inline transactions win.
type AnalysisRequest struct {
	RequestID    string               `json:"request_id"`
	Transactions []entity.Transaction `json:"transactions,omitempty"`
	Range        *entity.TimeRange    `json:"range,omitempty"`
}

// DecodeRequest parses and checks a request body
func DecodeRequest(data []byte) (*AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis request: %w", err)
	}
	if len(req.Transactions) == 0 && req.Range == nil {
		return nil, ErrEmptyRequest
	}
	return &req, nil
}

// ErrorReply is sent back when a request cannot be served
type ErrorReply struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}

// PendingRequest is a decoded request waiting for a worker
type PendingRequest struct {
	Request    *AnalysisRequest
	ReceivedAt time.Time
	msg        *nats.Msg
}

// Respond marshals v as JSON and replies to the requester
func (p *PendingRequest) Respond(v any) error {
	if p.msg == nil || p.msg.Reply == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}
	return p.msg.Respond(data)
}

// RespondError replies with an error payload
func (p *PendingRequest) RespondError(err error) error {
	reply := ErrorReply{Error: err.Error()}
	if p.Request != nil {
		reply.RequestID = p.Request.RequestID
	}
	return p.Respond(reply)
}

// NATSServer receives batch analysis requests over NATS request/reply
type NATSServer struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	config  *config.NATSConfig
	logger  *logger.Logger
	reqChan chan *PendingRequest

	mu        sync.Mutex
	isRunning bool
}

// NewNATSServer creates a new NATS analysis server
func NewNATSServer(cfg *config.NATSConfig, logger *logger.Logger) *NATSServer {
	return &NATSServer{
		config:  cfg,
		logger:  logger.WithComponent("nats-server"),
		reqChan: make(chan *PendingRequest, cfg.MaxPendingRequests),
	}
}

// Subject returns the subject requests are served on
func (n *NATSServer) Subject() string {
	return fmt.Sprintf("%s.analyze", n.config.SubjectPrefix)
}

// Connect connects to NATS server and subscribes to the request subject
func (n *NATSServer) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("laundering-ring-detector"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n.conn = conn

	subject := n.Subject()
	sub, err := conn.QueueSubscribe(subject, n.config.QueueGroup, n.handleMessage)
	if err != nil {
		conn.Close()
		n.conn = nil
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	n.mu.Lock()
	n.sub = sub
	n.isRunning = true
	n.mu.Unlock()

	n.logger.Info("Serving analysis requests",
		zap.String("subject", subject),
		zap.String("queue_group", n.config.QueueGroup))

	return nil
}

// handleMessage handles incoming NATS messages
func (n *NATSServer) handleMessage(msg *nats.Msg) {
	pending := &PendingRequest{ReceivedAt: time.Now(), msg: msg}

	req, err := DecodeRequest(msg.Data)
	if err != nil {
		n.logger.Error("Rejected analysis request", zap.Error(err))
		if rerr := pending.RespondError(err); rerr != nil {
			n.logger.Warn("Failed to send error reply", zap.Error(rerr))
		}
		return
	}
	pending.Request = req

	n.logger.Debug("Received analysis request",
		zap.String("request_id", req.RequestID),
		zap.Int("transactions", len(req.Transactions)),
		zap.Bool("has_range", req.Range != nil))

	// Hand over to the worker pool without blocking the subscription
	n.mu.Lock()
	accepted := false
	if n.isRunning {
		select {
		case n.reqChan <- pending:
			accepted = true
		default:
		}
	}
	n.mu.Unlock()

	if !accepted {
		n.logger.Warn("Request queue is full, rejecting request", zap.String("request_id", req.RequestID))
		if rerr := pending.RespondError(errors.New("analyzer busy, retry later")); rerr != nil {
			n.logger.Warn("Failed to send busy reply", zap.Error(rerr))
		}
	}
}

// Disconnect unsubscribes, closes the connection and the request channel
func (n *NATSServer) Disconnect() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.isRunning {
		return nil
	}
	n.isRunning = false

	if n.sub != nil {
		if err := n.sub.Unsubscribe(); err != nil {
			n.logger.Warn("Failed to unsubscribe", zap.Error(err))
		}
		n.sub = nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	close(n.reqChan)
	n.logger.Info("Disconnected from NATS")
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSServer) IsConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.isRunning && n.conn != nil && n.conn.IsConnected()
}

// Requests returns the channel of decoded requests
func (n *NATSServer) Requests() <-chan *PendingRequest {
	return n.reqChan
}
