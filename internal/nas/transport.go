package nas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"homelink/internal/errors"
)

// Wire format: every sync request and response is a JSON object with a
// single "data" member. Fields inside data depend on the endpoint.

// checkHashRequest asks the server whether the manifests agree.
type checkHashRequest struct {
	Name string `json:"name"`
	Hash string `json:"hash_str"`
}

// CheckHashResponse carries the verdict; FileList is only present on a
// mismatch.
type CheckHashResponse struct {
	Result   int       `json:"result"`
	FileList *FileList `json:"file_list,omitempty"`
}

type downloadRequest struct {
	Filename string `json:"filename"`
}

// FilePayload is one file on the wire.
type FilePayload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	MTime    string `json:"mtime"`
}

type removeRequest struct {
	Filename string `json:"filename"`
}

// Transport talks to a peer's sync endpoints. Tests substitute a fake;
// the daemon uses the HTTP client.
type Transport interface {
	CheckHash(ctx context.Context, addr, name, hash string) (*CheckHashResponse, error)
	Download(ctx context.Context, addr, filename string) (*FilePayload, error)
	Upload(ctx context.Context, addr string, file *FilePayload) error
	Remove(ctx context.Context, addr, filename string) error
}

// httpTransport is the production Transport. addr is host:port.
type httpTransport struct {
	http *http.Client
}

// NewTransport creates the HTTP sync transport.
func NewTransport(timeout time.Duration) Transport {
	return &httpTransport{http: &http.Client{Timeout: timeout}}
}

// post sends {"data": in} and decodes {"data": out}. out may be nil
// when the response body does not matter.
func (t *httpTransport) post(ctx context.Context, addr, endpoint string, in, out any) error {
	body, err := json.Marshal(map[string]any{"data": in})
	if err != nil {
		return errors.Wrap(err, "failed to encode sync request")
	}

	url := fmt.Sprintf("http://%s%s", addr, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build sync request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrPeerUnreachable, addr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s%s returned %s", errors.ErrPeerUnreachable, addr, endpoint, resp.Status)
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", endpoint)
	}
	return errors.Wrapf(json.Unmarshal(envelope.Data, out), "failed to decode %s data", endpoint)
}

func (t *httpTransport) CheckHash(ctx context.Context, addr, name, hash string) (*CheckHashResponse, error) {
	var out CheckHashResponse
	if err := t.post(ctx, addr, "/check_hash", checkHashRequest{Name: name, Hash: hash}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *httpTransport) Download(ctx context.Context, addr, filename string) (*FilePayload, error) {
	var out FilePayload
	if err := t.post(ctx, addr, "/download", downloadRequest{Filename: filename}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *httpTransport) Upload(ctx context.Context, addr string, file *FilePayload) error {
	return t.post(ctx, addr, "/upload", file, nil)
}

func (t *httpTransport) Remove(ctx context.Context, addr, filename string) error {
	return t.post(ctx, addr, "/remove", removeRequest{Filename: filename}, nil)
}
