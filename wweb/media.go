package wweb

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// maxMediaBytes caps downloaded media at 50 MB, matching the gateway's
// request body limit.
const maxMediaBytes = 50 << 20

var mediaClient = &http.Client{Timeout: 60 * time.Second}

// FetchMediaFromURL downloads a resource and wraps it as sendable Media.
// The mime type comes from the Content-Type header when present, otherwise
// it is sniffed from the payload.
func FetchMediaFromURL(ctx context.Context, rawURL string) (*Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wweb: media request: %w", err)
	}

	resp, err := mediaClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wweb: media fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("wweb: media fetch: status %d for %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("wweb: media read: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("wweb: media exceeds %d bytes", maxMediaBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return &Media{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
		Filename: mediaFilename(rawURL, mimeType),
		Size:     int64(len(data)),
	}, nil
}

// mediaFilename derives a filename from the URL path, adding an extension
// from the mime type when the path has none.
func mediaFilename(rawURL, mimeType string) string {
	name := "file"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			name = base
		}
	}
	if path.Ext(name) == "" {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			name += exts[0]
		}
	}
	return name
}
