package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// UploadFiles posts a multipart form with each file under the "files"
// field plus any extra form fields, for the document ingestion
// endpoints. Repeated field values become repeated form parts.
func (c *Client) UploadFiles(ctx context.Context, path string, paths []string, fields url.Values, auth AuthMode) (any, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", p, err)
		}
		part, err := form.CreateFormFile("files", filepath.Base(p))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("adding %s to upload: %w", p, err)
		}
	}
	for key, values := range fields {
		for _, value := range values {
			if err := form.WriteField(key, value); err != nil {
				return nil, err
			}
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if err := c.authorize(req, auth); err != nil {
		return nil, err
	}
	return c.send(req)
}
