// Package client is the HTTP client for the VoiceScribe API, used by
// the command line tool to upload captures and follow their progress.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicescribe/backend/internal/models"
)

// Client talks to one VoiceScribe server on behalf of one user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates an API client. token may be empty for login calls.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// envelope mirrors the server's response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("server error: %s", env.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// Login exchanges credentials for a bearer token and keeps it on the
// client for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

// UploadOptions describe one finished capture.
type UploadOptions struct {
	Title       string
	Language    string
	Duration    int
	ContentType string
	Filename    string
}

// Upload sends the captured audio and returns the created recording.
func (c *Client) Upload(ctx context.Context, audio []byte, opts UploadOptions) (*models.Recording, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	filename := opts.Filename
	if filename == "" {
		filename = "recording.webm"
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "audio/webm"
	}
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	fw, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, err
	}
	if opts.Title != "" {
		mw.WriteField("title", opts.Title)
	}
	if opts.Language != "" {
		mw.WriteField("language", opts.Language)
	}
	if opts.Duration > 0 {
		mw.WriteField("duration", strconv.Itoa(opts.Duration))
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recordings", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var rec models.Recording
	if err := c.do(req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Status fetches the recording's pipeline status. Shaped for
// poller.Poll.
func (c *Client) Status(ctx context.Context, id uuid.UUID) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recordings/"+id.String()+"/status", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// Get fetches the full recording row.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*models.Recording, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recordings/"+id.String(), nil)
	if err != nil {
		return nil, err
	}
	var rec models.Recording
	if err := c.do(req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List fetches the caller's recordings, newest first.
func (c *Client) List(ctx context.Context) ([]models.RecordingListItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recordings", nil)
	if err != nil {
		return nil, err
	}
	var list []models.RecordingListItem
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list, nil
}
