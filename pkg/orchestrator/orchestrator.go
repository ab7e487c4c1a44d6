// Package orchestrator wires the download → overlay render → upload sequence
// behind a single entry point, tagging failures with the step they came from
// so callers can distinguish an unreadable source from a dead upload target.
package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-formfill/pkg/field"
	"github.com/goliatone/go-formfill/pkg/overlay"
	"github.com/goliatone/go-formfill/pkg/submit"
)

// Step identifies the pipeline stage a failure originated from.
type Step string

const (
	StepDownload Step = "download"
	StepRender   Step = "render"
	StepUpload   Step = "upload"
)

// StepError wraps a stage failure with its step tag.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("orchestrator: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// FailedStep extracts the step tag from an error chain.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}

// Downloader fetches original document bytes by an opaque document id.
type Downloader interface {
	Download(ctx context.Context, documentID string) ([]byte, error)
}

// DownloaderFunc adapts a function to the Downloader interface.
type DownloaderFunc func(ctx context.Context, documentID string) ([]byte, error)

func (f DownloaderFunc) Download(ctx context.Context, documentID string) ([]byte, error) {
	return f(ctx, documentID)
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithDownloader injects the document download capability.
func WithDownloader(d Downloader) Option {
	return func(o *Orchestrator) {
		o.downloader = d
	}
}

// WithRenderer injects a custom overlay renderer.
func WithRenderer(r overlay.Renderer) Option {
	return func(o *Orchestrator) {
		o.renderer = r
	}
}

// WithUploader injects the upload capability.
func WithUploader(u submit.Uploader) Option {
	return func(o *Orchestrator) {
		o.uploader = u
	}
}

// WithLogger injects the logger shared across stages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the full pipeline from original document to
// uploaded, flattened output. Missing dependencies are initialised with the
// built-in implementations where one exists.
type Orchestrator struct {
	downloader Downloader
	renderer   overlay.Renderer
	uploader   submit.Uploader
	logger     *slog.Logger
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{logger: slog.Default()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.renderer == nil {
		o.renderer = overlay.New(overlay.WithLogger(o.logger))
	}
	return o
}

// Request describes one completion: which document, which fields, where the
// result goes.
type Request struct {
	// DocumentID identifies the original document at the download capability.
	// Ignored when Original is supplied.
	DocumentID string

	// Original allows callers to bypass the downloader when they already hold
	// the source bytes.
	Original []byte

	// ContainerID scopes the upload, typically a job identifier.
	ContainerID string

	// OriginalFileName seeds the display-name derivation.
	OriginalFileName string

	// Fields is the immutable snapshot to flatten. Creation order is draw
	// order within a page.
	Fields []field.Field
}

// Result is the structured outcome of a completed submission.
type Result struct {
	Success           bool           `json:"success"`
	FileName          string         `json:"fileName"`
	FileSize          int            `json:"fileSize"`
	ElementsProcessed int            `json:"elementsProcessed"`
	FieldsProcessed   field.Summary  `json:"fieldsProcessed"`
	UploadID          string         `json:"serviceTitanId,omitempty"`
	UploadedAt        time.Time      `json:"uploadedAt"`
	OriginalFileName  string         `json:"originalFileName"`
	Render            overlay.Report `json:"-"`
}

var pdfMagic = []byte("%PDF")

// Complete executes the pipeline. The render stage is best-effort per field;
// only an unreadable source document or a failed upload surface as errors,
// tagged with their step. Upload failures retain the rendered bytes (see
// submit.UploadError) so retries skip the render.
func (o *Orchestrator) Complete(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(req.Fields) == 0 {
		return Result{}, errors.New("orchestrator: no fields provided")
	}

	original := req.Original
	if len(original) == 0 {
		if o.downloader == nil {
			return Result{}, errors.New("orchestrator: downloader is required when original bytes are not supplied")
		}
		data, err := o.downloader.Download(ctx, req.DocumentID)
		if err != nil {
			return Result{}, &StepError{Step: StepDownload, Err: err}
		}
		original = data
	}
	if !bytes.HasPrefix(original, pdfMagic) {
		return Result{}, &StepError{Step: StepDownload, Err: errors.New("downloaded file is not a valid PDF")}
	}

	output, report, err := o.renderer.Render(ctx, original, req.Fields)
	if err != nil {
		return Result{}, &StepError{Step: StepRender, Err: err}
	}
	if report.FieldFailures > 0 || len(report.SkippedPages) > 0 {
		o.logger.Warn("orchestrator: render completed with degradations",
			"fieldFailures", report.FieldFailures,
			"skippedPages", report.SkippedPages)
	}

	summary := field.Summarize(req.Fields)
	uploaded, err := submit.NewPipeline(o.uploader).Submit(ctx, req.ContainerID, output, req.OriginalFileName, summary)
	if err != nil {
		return Result{}, &StepError{Step: StepUpload, Err: err}
	}

	return Result{
		Success:           true,
		FileName:          uploaded.FileName,
		FileSize:          uploaded.ByteSize,
		ElementsProcessed: len(req.Fields),
		FieldsProcessed:   summary,
		UploadID:          uploaded.ID,
		UploadedAt:        uploaded.UploadedAt,
		OriginalFileName:  req.OriginalFileName,
		Render:            report,
	}, nil
}
