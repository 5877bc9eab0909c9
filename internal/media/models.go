// Package media is the registry of source files the timeline can reference.
// Clips hold opaque media file ids; this package owns what those ids point
// at, their probed metadata, and whether the bytes are still reachable.
package media

import (
	"encoding/json"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/orsinium-labs/enum"

	"github.com/cutroom/cutroom-engine/internal/proxy"
)

// ErrUnknownKind is returned when a stored or submitted kind value is not in
// the closed set.
var ErrUnknownKind = merry.Sentinel("unknown media kind")

// Kind classifies what a probed file fundamentally is.
type Kind enum.Member[string]

//goland:noinspection GoMixedReceiverTypes
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (k *Kind) UnmarshalJSON(value []byte) error {
	var stringValue string
	if err := json.Unmarshal(value, &stringValue); err != nil {
		return err
	}
	kind := Kinds.Parse(stringValue)
	if kind == nil {
		return merry.Wrap(ErrUnknownKind, merry.AppendMessage(stringValue))
	}
	*k = *kind
	return nil
}

var (
	KindVideo = Kind{Value: "video"}
	KindAudio = Kind{Value: "audio"}
	KindImage = Kind{Value: "image"}
	Kinds     = enum.New(KindVideo, KindAudio, KindImage)
)

// MediaFile is one registered source file.
type MediaFile struct {
	ID          string       `json:"id"`
	Path        string       `json:"path"`
	Filename    string       `json:"filename"`
	Kind        Kind         `json:"kind"`
	Duration    float64      `json:"duration"`
	HasAudio    bool         `json:"hasAudio"`
	Online      bool         `json:"online"`
	ProxyStatus proxy.Status `json:"proxyStatus"`
	CreatedAt   time.Time    `json:"createdAt"`
}
