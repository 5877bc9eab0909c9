package proxy

import (
	"context"
	"log/slog"
)

// StubClient satisfies Client when no proxy service is configured. Every
// file reports StatusNone so playback falls back to originals.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) Status(ctx context.Context, mediaFileID string) (Status, error) {
	c.logger.Info("proxy stub: status requested", "media_file_id", mediaFileID)
	return StatusNone, nil
}

func (c *StubClient) ProxyPath(ctx context.Context, mediaFileID string) (string, error) {
	return "", nil
}
