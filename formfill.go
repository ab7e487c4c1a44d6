// Package formfill turns technician annotations over a rendered PDF form
// into a permanently flattened document uploaded to a record-management
// backend. The root package re-exports the pipeline types and offers single
// call entry points; the heavy lifting lives under pkg/.
package formfill

import (
	"context"

	"github.com/goliatone/go-formfill/pkg/field"
	"github.com/goliatone/go-formfill/pkg/orchestrator"
	"github.com/goliatone/go-formfill/pkg/overlay"
	"github.com/goliatone/go-formfill/pkg/submit"
)

// Field is one annotation placed over a page.
type Field = field.Field

// FieldType enumerates the supported annotation kinds.
type FieldType = field.Type

const (
	FieldText      = field.TypeText
	FieldDate      = field.TypeDate
	FieldCheckbox  = field.TypeCheckbox
	FieldSignature = field.TypeSignature
)

// Request describes one completion run.
type Request = orchestrator.Request

// Result is the structured submission outcome.
type Result = orchestrator.Result

// StepError tags pipeline failures with their originating step.
type StepError = orchestrator.StepError

// UploadResult reports a successful upload.
type UploadResult = submit.UploadResult

// NewOrchestrator exposes the pipeline constructor from the top-level module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Complete runs download → render → upload in one call. It is the simplest
// entry point for callers that just want a form completed and stored.
func Complete(ctx context.Context, req Request, options ...orchestrator.Option) (Result, error) {
	return orchestrator.New(options...).Complete(ctx, req)
}

// Render flattens a field snapshot onto original without uploading, returning
// the output bytes and the per-pass report.
func Render(ctx context.Context, original []byte, fields []Field) ([]byte, overlay.Report, error) {
	return overlay.New().Render(ctx, original, fields)
}
