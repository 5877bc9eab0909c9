package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is the production client for the proxy service's REST API.
type HTTPClient struct {
	restyClient *resty.Client
	logger      *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("accept", "application/json")
	client.SetDisableWarn(true)
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(2)
	if token != "" {
		client.SetAuthToken(token)
	}

	return &HTTPClient{restyClient: client, logger: logger}
}

type statusResult struct {
	MediaFileID string `json:"mediaFileId"`
	Status      Status `json:"status"`
	Path        string `json:"path,omitempty"`
}

func (c *HTTPClient) Status(ctx context.Context, mediaFileID string) (Status, error) {
	result, err := c.lookup(ctx, mediaFileID)
	if err != nil {
		return StatusNone, err
	}
	if result == nil {
		return StatusNone, nil
	}
	return result.Status, nil
}

func (c *HTTPClient) ProxyPath(ctx context.Context, mediaFileID string) (string, error) {
	result, err := c.lookup(ctx, mediaFileID)
	if err != nil {
		return "", err
	}
	if result == nil || result.Status != StatusReady {
		return "", nil
	}
	return result.Path, nil
}

// lookup returns nil for files the service has never seen.
func (c *HTTPClient) lookup(ctx context.Context, mediaFileID string) (*statusResult, error) {
	req := c.restyClient.R()
	req.SetContext(ctx)
	req.SetResult(&statusResult{})

	res, err := req.Get(fmt.Sprintf("proxies/%s", mediaFileID))
	if err != nil {
		return nil, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		c.logger.Warn("proxy status lookup failed",
			"media_file_id", mediaFileID,
			"status_code", res.StatusCode(),
		)
		return nil, &StatusError{StatusCode: res.StatusCode(), Body: string(res.Body())}
	}
	return res.Result().(*statusResult), nil
}
