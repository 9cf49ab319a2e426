// Package upstream talks to the external document-extraction service.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

const (
	taxStatusPath = "/api/extraction/extract"
	paymentPath   = "/api/extraction/extract-darf"
)

// StatusError is a non-2xx answer, kept verbatim for the caller.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("extraction service returned %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *StatusError) Unwrap() error { return common.ErrUpstream }

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	decoder *Decoder
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "extraction service URL is required", common.ErrInvalidInput)
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	dec, err := NewDecoder(logger)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		decoder: dec,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Fetch uploads the file at path and decodes the service answer for family.
func (c *Client) Fetch(ctx context.Context, path string, family constants.DocumentFamily) (entity.Document, error) {
	endpoint := taxStatusPath
	if family == constants.FamilyPaymentDocument {
		endpoint = paymentPath
	}
	raw, err := c.PostFile(ctx, endpoint, path)
	if err != nil {
		return entity.Document{}, err
	}

	var doc entity.Document
	if family == constants.FamilyPaymentDocument {
		doc, err = c.decoder.DecodePayment(raw)
	} else {
		doc, err = c.decoder.DecodeTaxStatus(raw)
	}
	if err != nil {
		return entity.Document{}, err
	}
	doc.Family = family
	doc.Source = path
	return doc, nil
}

// PostFile sends path as the multipart field "file" and returns the body.
func (c *Client) PostFile(ctx context.Context, endpoint, path string) ([]byte, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	body, contentType, err := multipartBody(path)
	if err != nil {
		c.logger.Error("upstream.http.encode_error", "req_id", reqID, "path", path, "error", err)
		return nil, fmt.Errorf("encode upload: %w", err)
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	c.logger.Info("upstream.http.request",
		"req_id", reqID,
		"import_id", common.ImportIDFromContext(ctx),
		"url", url,
		"content_length", body.Len(),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("upstream.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: %w", common.ErrUpstream, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("upstream.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", common.ErrUpstream, err)
	}

	c.logger.Info("upstream.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func multipartBody(path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
