package lemonfox

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"voice-chat/internal/domain"
)

const (
	DefaultBaseURL  = "https://api.lemonfox.ai/v1"
	DefaultLanguage = "german"
	serviceName     = "lemonfox"
)

type FileMode string

const (
	// FileModeUpload sends the WAV bytes as a regular file part.
	FileModeUpload FileMode = "upload"
	// FileModeDataURI sends the WAV inline as a base64 data URI string field.
	FileModeDataURI FileMode = "data_uri"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	language   string
	fileMode   FileMode
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithFileMode(mode FileMode) Option {
	return func(c *Client) {
		if mode != "" {
			c.fileMode = mode
		}
	}
}

// NewClient returns a transcription client. No request timeout is set beyond the
// transport's own.
func NewClient(language string, opts ...Option) *Client {
	if language == "" {
		language = DefaultLanguage
	}
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		language:   language,
		// upload sends what a mobile FormData file part sends; data_uri is opt-in
		fileMode:   FileModeUpload,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *Client) Transcribe(ctx context.Context, apiKey string, audio []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := c.writeFile(writer, audio); err != nil {
		return "", err
	}

	if err := writer.WriteField("language", c.language); err != nil {
		return "", fmt.Errorf("writing language field: %w", err)
	}

	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("writing response_format field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return "", &domain.RemoteError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.MalformedResponseError{Service: serviceName, Reason: "decoding response", Err: err}
	}

	if result.Text == "" {
		return "", &domain.MalformedResponseError{Service: serviceName, Reason: "missing text"}
	}

	return result.Text, nil
}

func (c *Client) writeFile(writer *multipart.Writer, audio []byte) error {
	if c.fileMode == FileModeDataURI {
		uri := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(audio)
		if err := writer.WriteField("file", uri); err != nil {
			return fmt.Errorf("writing file field: %w", err)
		}
		return nil
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}

	if _, err := part.Write(audio); err != nil {
		return fmt.Errorf("writing audio: %w", err)
	}
	return nil
}
