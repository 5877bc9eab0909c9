// Package playback streams media files for scrub preview. It never decodes
// anything; renditions are served byte-for-byte with Range support and the
// proxy rendition is preferred whenever one is ready.
package playback

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cutroom/cutroom-engine/internal/media"
	"github.com/cutroom/cutroom-engine/internal/proxy"
)

// Service streams a registered media file over HTTP.
type Service interface {
	ServeMedia(w http.ResponseWriter, r *http.Request, file *media.MediaFile) error
}

type Streamer struct {
	proxies proxy.Client
	logger  *slog.Logger
}

func NewStreamer(proxies proxy.Client, logger *slog.Logger) *Streamer {
	return &Streamer{proxies: proxies, logger: logger}
}

// ServeMedia picks the best rendition and streams it. Proxy lookup failures
// fall back to the original file so preview survives a sidecar outage.
func (s *Streamer) ServeMedia(w http.ResponseWriter, r *http.Request, file *media.MediaFile) error {
	path := file.Path
	if file.ProxyStatus == proxy.StatusReady {
		proxyPath, err := s.proxies.ProxyPath(r.Context(), file.ID)
		switch {
		case err != nil:
			s.logger.Warn("proxy path lookup failed, serving original",
				"media_file_id", file.ID, "error", err)
		case proxyPath != "":
			path = proxyPath
		}
	}
	return s.serveFile(w, r, path)
}

func (s *Streamer) serveFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	parsedRange, err := ParseRange(r.Header.Get("Range"), size)
	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	// An unparsable Range header degrades to a full-body response.
	if err != nil && err != ErrInvalidRange {
		return err
	}

	if parsedRange == nil || err == ErrInvalidRange {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", parsedRange.ContentLength()))
	w.Header().Set("Content-Range", parsedRange.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(parsedRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	io.CopyN(w, file, parsedRange.ContentLength())
	return nil
}
