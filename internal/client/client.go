package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"pdfchat/internal/domain"
)

// ErrDecode is returned when the backend answers with a body that is not the
// expected JSON document.
var ErrDecode = errors.New("invalid response body")

// UploadField is the multipart form field carrying the PDF.
const UploadField = "pdf_file"

// Client is a minimal REST client for the PDF chat backend.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

type Config struct {
	BaseURL string
	// Timeout of zero means no deadline; requests only end with the context.
	Timeout time.Duration
	Logger  *zap.Logger
}

func New(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log.Named("client"),
	}
}

// Upload sends the file at path as a multipart form to POST /upload.
func (c *Client) Upload(ctx context.Context, path string) (*domain.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(UploadField, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	c.log.Info("uploading pdf", zap.String("file", filepath.Base(path)), zap.Int("bytes", body.Len()))
	var out domain.UploadResult
	if err := c.do(ctx, http.MethodPost, "/upload", w.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat posts a user message to POST /chat.
func (c *Client) Chat(ctx context.Context, message string) (*domain.ChatResult, error) {
	data, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, err
	}
	var out domain.ChatResult
	if err := c.do(ctx, http.MethodPost, "/chat", "application/json", bytes.NewReader(data), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches the conversation so far from GET /history.
func (c *Client) History(ctx context.Context) (*domain.HistoryResult, error) {
	var out domain.HistoryResult
	if err := c.do(ctx, http.MethodGet, "/history", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status asks the backend whether its LLM API key is configured.
func (c *Client) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	var out domain.ServiceStatus
	if err := c.do(ctx, http.MethodGet, "/check_groq_api", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs the request and decodes the JSON body into out. Non-2xx codes
// are not errors: the backend reports application failures in the body.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("response", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s (%s): %w: %v", method, path, resp.Status, ErrDecode, err)
	}
	return nil
}
