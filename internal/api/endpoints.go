package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/ontree-co/sitegen/internal/website"
)

const (
	// maxResponseBody bounds how much of a response is read into memory.
	maxResponseBody = 32 << 20
	// maxErrorBody bounds how much of an error response is kept for the message.
	maxErrorBody = 64 << 10
)

var errMissingID = errors.New("response did not include a job id")

// ServiceInfo is the service's self-description served at the API root.
type ServiceInfo struct {
	Message     string            `json:"message"`
	GeminiModel string            `json:"gemini_model,omitempty"`
	Version     string            `json:"version,omitempty"`
	Endpoints   map[string]string `json:"endpoints,omitempty"`
}

// GenerateWebsite submits a generation request and returns the initial job record.
func (c *Client) GenerateWebsite(ctx context.Context, req website.Request) (*website.Generated, error) {
	const op = "generate website"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Kind: InvalidInput, Op: op, Message: "failed to marshal request", Cause: err}
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	resp, err := c.Do(ctx, http.MethodPost, "/generate-website", bytes.NewReader(body), header)
	if err != nil {
		return nil, &Error{Kind: Transport, Op: op, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}

	var result website.Generated
	if err := decodeJSON(op, resp.Body, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, &Error{Kind: Decode, Op: op, Message: "invalid response", Cause: errMissingID}
	}
	if result.Status == "" {
		result.Status = website.StatusGenerating
	}
	return &result, nil
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, id string) (*website.Generated, error) {
	const op = "get status"

	resp, err := c.get(ctx, op, "/status/", id, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result website.Generated
	if err := decodeJSON(op, resp.Body, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		result.ID = id
	}
	return &result, nil
}

// Download fetches the generated artifacts. The service may answer with a JSON
// object of the three texts or with a zip archive holding the three files.
func (c *Client) Download(ctx context.Context, id string) (*website.Bundle, error) {
	const op = "download"

	resp, err := c.get(ctx, op, "/download/", id, "application/json, application/zip")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readLimited(op, resp.Body)
	if err != nil {
		return nil, err
	}

	var bundle *website.Bundle
	if isZip(resp.Header.Get("Content-Type"), data) {
		bundle, err = unzipBundle(data)
		if err != nil {
			return nil, &Error{Kind: Decode, Op: op, Message: "invalid archive", Cause: err}
		}
	} else {
		bundle = &website.Bundle{}
		if err := json.Unmarshal(data, bundle); err != nil {
			return nil, &Error{Kind: Decode, Op: op, Message: "invalid response", Cause: err}
		}
	}
	bundle.ID = id
	return bundle, nil
}

// Preview fetches a renderable HTML document for the job. JSON bodies of the
// form {"html": "..."} and raw text/html responses are both accepted.
func (c *Client) Preview(ctx context.Context, id string) (string, error) {
	const op = "preview"

	resp, err := c.get(ctx, op, "/preview/", id, "application/json, text/html")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := readLimited(op, resp.Body)
	if err != nil {
		return "", err
	}

	if mediaType(resp.Header.Get("Content-Type")) == "application/json" {
		var payload struct {
			HTML string `json:"html"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", &Error{Kind: Decode, Op: op, Message: "invalid response", Cause: err}
		}
		return payload.HTML, nil
	}
	return string(data), nil
}

// Template fetches the raw artifact texts of a completed job.
func (c *Client) Template(ctx context.Context, id string) (*website.Bundle, error) {
	const op = "template"

	resp, err := c.get(ctx, op, "/template/", id, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var bundle website.Bundle
	if err := decodeJSON(op, resp.Body, &bundle); err != nil {
		return nil, err
	}
	if bundle.ID == "" {
		bundle.ID = id
	}
	return &bundle, nil
}

// Info fetches the service description from the API root.
func (c *Client) Info(ctx context.Context) (*ServiceInfo, error) {
	const op = "info"

	header := http.Header{}
	header.Set("Accept", "application/json")
	resp, err := c.Do(ctx, http.MethodGet, "/", nil, header)
	if err != nil {
		return nil, &Error{Kind: Transport, Op: op, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}

	var info ServiceInfo
	if err := decodeJSON(op, resp.Body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// get issues a GET for prefix+id and returns the response once its status is 2xx.
func (c *Client) get(ctx context.Context, op, prefix, id, accept string) (*http.Response, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &Error{Kind: InvalidInput, Op: op, Message: "job id is required"}
	}

	header := http.Header{}
	header.Set("Accept", accept)

	resp, err := c.Do(ctx, http.MethodGet, prefix+url.PathEscape(id), nil, header)
	if err != nil {
		return nil, &Error{Kind: Transport, Op: op, Message: "request failed", Cause: err}
	}
	if err := checkStatus(op, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := strings.TrimSpace(string(body))

	// FastAPI style errors carry {"detail": "..."}.
	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
		message = detail.Detail
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &Error{Kind: HTTPStatus, Op: op, StatusCode: resp.StatusCode, Message: message}
}

func decodeJSON(op string, body io.Reader, v interface{}) error {
	if err := json.NewDecoder(io.LimitReader(body, maxResponseBody)).Decode(v); err != nil {
		return &Error{Kind: Decode, Op: op, Message: "invalid response", Cause: err}
	}
	return nil
}

func readLimited(op string, body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxResponseBody))
	if err != nil {
		return nil, &Error{Kind: Transport, Op: op, Message: "failed to read response", Cause: err}
	}
	return data, nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func isZip(contentType string, data []byte) bool {
	switch mediaType(contentType) {
	case "application/zip", "application/x-zip-compressed":
		return true
	}
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func unzipBundle(data []byte) (*website.Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	bundle := &website.Bundle{}
	found := 0
	for _, f := range zr.File {
		name := f.Name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxResponseBody))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if bundle.Set(name, string(content)) {
			found++
		}
	}
	if found == 0 {
		return nil, errors.New("archive contains no website files")
	}
	return bundle, nil
}
