package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-formfill/pkg/field"
)

// UploadRequest is one attachment to post to the external store.
type UploadRequest struct {
	// ContainerID scopes the upload, typically a job identifier.
	ContainerID string
	FileName    string
	Description string
	Data        []byte
	Fields      field.Summary
}

// UploadResult reports a successful upload.
type UploadResult struct {
	ID         string        `json:"serviceTitanId"`
	FileName   string        `json:"fileName"`
	ByteSize   int           `json:"fileSize"`
	Fields     field.Summary `json:"fieldsProcessed"`
	UploadedAt time.Time     `json:"uploadedAt"`
}

// UploadError is a remote upload failure. The already-rendered bytes are
// preserved on the error so callers can retry the upload without paying for
// another render pass.
type UploadError struct {
	Status   int
	Body     string
	FileName string
	Output   []byte
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("submit: upload of %q failed: status %d: %s", e.FileName, e.Status, e.Body)
}

// Uploader abstracts the external upload capability.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, req UploadRequest) (UploadResult, error)

func (f UploaderFunc) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	return f(ctx, req)
}

// HTTPOption customises the HTTP uploader.
type HTTPOption func(*HTTPUploader)

// WithHTTPClient injects the http.Client used for uploads.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(u *HTTPUploader) {
		if client != nil {
			u.client = client
		}
	}
}

// WithHeader adds a header to every upload request (authorization, app keys).
func WithHeader(key, value string) HTTPOption {
	return func(u *HTTPUploader) {
		u.header.Add(key, value)
	}
}

// WithEndpoint overrides how the upload URL is derived from the container id.
func WithEndpoint(fn func(baseURL, containerID string) string) HTTPOption {
	return func(u *HTTPUploader) {
		if fn != nil {
			u.endpoint = fn
		}
	}
}

// HTTPUploader posts multipart attachment bodies to a forms backend.
type HTTPUploader struct {
	client   *http.Client
	baseURL  string
	header   http.Header
	endpoint func(baseURL, containerID string) string
}

// NewHTTPUploader constructs an uploader rooted at baseURL.
func NewHTTPUploader(baseURL string, options ...HTTPOption) (*HTTPUploader, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("submit: base URL is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("submit: parse base URL: %w", err)
	}

	u := &HTTPUploader{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: trimmed,
		header:  make(http.Header),
		endpoint: func(baseURL, containerID string) string {
			return fmt.Sprintf("%s/jobs/%s/attachments", baseURL, url.PathEscape(containerID))
		},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(u)
	}
	return u, nil
}

// Upload posts the multipart payload: the file part plus "name" and
// "description" form fields. A non-2xx response becomes an *UploadError that
// retains the rendered bytes.
func (u *HTTPUploader) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if req.ContainerID == "" {
		return UploadResult{}, fmt.Errorf("submit: container id is required")
	}
	if len(req.Data) == 0 {
		return UploadResult{}, fmt.Errorf("submit: no output bytes to upload")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreatePart(fileHeader(req.FileName))
	if err != nil {
		return UploadResult{}, fmt.Errorf("submit: create file part: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return UploadResult{}, fmt.Errorf("submit: write file part: %w", err)
	}
	if err := writer.WriteField("name", req.FileName); err != nil {
		return UploadResult{}, fmt.Errorf("submit: write name field: %w", err)
	}
	if err := writer.WriteField("description", req.Description); err != nil {
		return UploadResult{}, fmt.Errorf("submit: write description field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("submit: finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint(u.baseURL, req.ContainerID), &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("submit: build request: %w", err)
	}
	for key, values := range u.header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(httpReq)
	if err != nil {
		return UploadResult{}, fmt.Errorf("submit: post upload: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResult{}, &UploadError{
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(respBody)),
			FileName: req.FileName,
			Output:   req.Data,
		}
	}

	var created struct {
		ID json.Number `json:"id"`
	}
	// Some backends return an empty body on create; the id stays blank then.
	_ = json.Unmarshal(respBody, &created)

	return UploadResult{
		ID:         created.ID.String(),
		FileName:   req.FileName,
		ByteSize:   len(req.Data),
		Fields:     req.Fields,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func fileHeader(fileName string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`,
		strings.ReplaceAll(fileName, `"`, "")))
	h.Set("Content-Type", "application/pdf")
	return h
}

// Pipeline implements the submission contract: derive the display name, post
// once, report the structured result. No automatic retry happens here; a
// caller re-invokes Submit with the same rendered bytes.
type Pipeline struct {
	uploader Uploader
}

// NewPipeline wraps an uploader.
func NewPipeline(uploader Uploader) *Pipeline {
	return &Pipeline{uploader: uploader}
}

// Submit uploads rendered output under its derived display name.
func (p *Pipeline) Submit(ctx context.Context, containerID string, output []byte, originalFileName string, summary field.Summary) (UploadResult, error) {
	if p == nil || p.uploader == nil {
		return UploadResult{}, fmt.Errorf("submit: uploader is required")
	}
	name := DisplayName(originalFileName)
	return p.uploader.Upload(ctx, UploadRequest{
		ContainerID: containerID,
		FileName:    name,
		Description: fmt.Sprintf("Completed form with %d filled fields", summary.Total()),
		Data:        output,
		Fields:      summary,
	})
}
