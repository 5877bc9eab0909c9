// Package proxy talks to the external proxy-rendering service. The engine
// never renders or transcodes proxies itself; it only reads readiness so the
// UI can pick the cheaper file and grey out clips that are still cooking.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ansel1/merry/v2"
	"github.com/orsinium-labs/enum"
)

// ErrUnknownStatus is returned when the service reports a status value this
// build does not know.
var ErrUnknownStatus = merry.Sentinel("unknown proxy status")

// Status is the lifecycle of a proxy render for one media file.
type Status enum.Member[string]

//goland:noinspection GoMixedReceiverTypes
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (s *Status) UnmarshalJSON(value []byte) error {
	var stringValue string
	if err := json.Unmarshal(value, &stringValue); err != nil {
		return err
	}
	status := Statuses.Parse(stringValue)
	if status == nil {
		return merry.Wrap(ErrUnknownStatus, merry.AppendMessage(stringValue))
	}
	*s = *status
	return nil
}

var (
	StatusNone    = Status{Value: "none"}
	StatusPending = Status{Value: "pending"}
	StatusReady   = Status{Value: "ready"}
	StatusFailed  = Status{Value: "failed"}
	Statuses      = enum.New(StatusNone, StatusPending, StatusReady, StatusFailed)
)

// Client is the engine's view of the proxy service.
type Client interface {
	// Status reports proxy readiness for a media file. A file the service
	// has never seen reports StatusNone, not an error.
	Status(ctx context.Context, mediaFileID string) (Status, error)

	// ProxyPath returns the local path of a ready proxy, or "" when none
	// exists.
	ProxyPath(ctx context.Context, mediaFileID string) (string, error)
}

// StatusError represents a failed status lookup.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("proxy status lookup failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode >= 500
}
