package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client publishes domain events to the configured Pub/Sub topic.
type Client struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topic     string
}

// NewClient creates a Pub/Sub v2 client bound to the events topic.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	if strings.TrimSpace(cfg.EventsTopic) == "" {
		return nil, errors.New("pubsub events topic is required")
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		publisher: psClient.Publisher(cfg.EventsTopic),
		topic:     cfg.EventsTopic,
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", cfg.EventsTopic), "pubsub client initialized")
	}

	return c, nil
}

// Publish sends one message and blocks until the server acknowledges it.
func (c *Client) Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error) {
	if c == nil || c.publisher == nil {
		return "", errors.New("pubsub publisher not initialized")
	}
	result := c.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributes,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing to %s: %w", c.topic, err)
	}
	return id, nil
}

// Close flushes the publisher and releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.publisher != nil {
		c.publisher.Stop()
	}
	return c.client.Close()
}

// IsRetryable classifies a publish error by gRPC status code.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		if unwrapped := errors.Unwrap(err); unwrapped != nil {
			st, ok = status.FromError(unwrapped)
		}
		if !ok {
			// Not a gRPC failure, assume transient.
			return true
		}
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return true
	default:
		return false
	}
}
