package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ragbot/internal/models"
)

var (
	// ErrUnreachable means the request never got an HTTP response.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrBadResponse means the backend answered with a body that is not JSON.
	ErrBadResponse = errors.New("backend returned non-JSON response")
)

// StatusError is an HTTP error status from the backend, with its error text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Message)
}

// Client talks to the ragbot HTTP API.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: timeout}}
}

// Ask sends one question to the query endpoint and returns the answer text.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", err
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/gemini/query", "application/json", bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

type UploadResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	CorpusID   string `json:"corpusId"`
	TotalFiles int    `json:"totalFiles"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Files      []struct {
		ID       string `json:"id"`
		FileName string `json:"fileName"`
		Size     int64  `json:"size"`
	} `json:"files"`
	Errors []struct {
		FileName string `json:"fileName"`
		Error    string `json:"error"`
	} `json:"errors"`
}

// Upload streams the files at paths to the upload endpoint as one multipart batch.
func (c *Client) Upload(ctx context.Context, paths []string) (UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, paths))
	}()
	var out UploadResponse
	err := c.do(ctx, http.MethodPost, "/api/gemini/upload", mw.FormDataContentType(), pr, &out)
	_ = pr.Close()
	return out, err
}

func writeParts(mw *multipart.Writer, paths []string) error {
	for _, p := range paths {
		if err := writePart(mw, p); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writePart(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", contentTypeFor(path))
	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return models.MIMETypePDF
	case ".docx":
		return models.MIMETypeDOCX
	case ".txt", ".text":
		return models.MIMETypeText
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/api/health", "", nil, &out)
	return out, err
}

type CorpusInfo struct {
	Corpus models.Corpus         `json:"corpus"`
	Files  []models.UploadedFile `json:"files"`
}

func (c *Client) Corpus(ctx context.Context) (CorpusInfo, error) {
	var out CorpusInfo
	err := c.do(ctx, http.MethodGet, "/api/gemini/corpus", "", nil, &out)
	return out, err
}

// Call is one logged provider call as reported by the backend.
type Call struct {
	Operation string    `json:"operation"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	ErrorType string    `json:"errorType"`
	LatencyMS int64     `json:"latencyMs"`
	At        time.Time `json:"at"`
}

type CallLog struct {
	Enabled bool   `json:"callLog"`
	Calls   []Call `json:"calls"`
}

func (c *Client) Calls(ctx context.Context, limit int) (CallLog, error) {
	var out CallLog
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/gemini/calls?limit=%d", limit), "", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) != nil {
			return &StatusError{Code: resp.StatusCode}
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// ErrorText turns a client error into the assistant message shown in the chat.
func ErrorText(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se) && se.Message != "":
		return "Sorry, something went wrong: " + se.Message
	case errors.As(err, &se):
		return fmt.Sprintf("Sorry, the server returned an error (status %d). Please try again later.", se.Code)
	case errors.Is(err, ErrBadResponse):
		return "Sorry, the server sent an unexpected response. Please try again later."
	case errors.Is(err, ErrUnreachable):
		return "Sorry, I couldn't reach the server. Please check your connection and that the backend is running."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}
