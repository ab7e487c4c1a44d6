package formapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-formfill/pkg/field"
	"github.com/goliatone/go-formfill/pkg/orchestrator"
	"github.com/goliatone/go-formfill/pkg/submit"
)

// HTTPError lets guards and collaborators pick their response status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError pairs an error with an HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// savePayload is the browser-facing request body. Field content is dynamic:
// strings for text/date, booleans (or their legacy string/number spellings)
// for checkboxes, data URLs for signatures.
type savePayload struct {
	JobID            string       `json:"jobId"`
	AttachmentID     string       `json:"attachmentId"`
	OriginalFileName string       `json:"originalFileName"`
	EditableElements []field.Wire `json:"editableElements"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Step    string `json:"step,omitempty"`
}

type successResponse struct {
	orchestrator.Result
	Message string `json:"message"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

// NewHandler builds the save handler from option functions.
func NewHandler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the save handler from a pre-constructed Options
// value. Callers are expected to pass an Options produced by NewOptions so
// defaults and clamps are applied.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}
		if opts.Pipeline == nil {
			writeFailure(w, http.StatusInternalServerError, "form pipeline not configured", "")
			return
		}

		var payload savePayload
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes))
		if err := dec.Decode(&payload); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
			return
		}
		if len(payload.EditableElements) == 0 {
			writeFailure(w, http.StatusBadRequest, "no form elements provided", "")
			return
		}

		fields, err := field.DecodeList(payload.EditableElements)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error(), "")
			return
		}

		result, err := opts.Pipeline.Complete(r.Context(), orchestrator.Request{
			DocumentID:       payload.AttachmentID,
			ContainerID:      payload.JobID,
			OriginalFileName: payload.OriginalFileName,
			Fields:           fields,
		})
		if err != nil {
			step, _ := orchestrator.FailedStep(err)
			opts.Logger.Error("formapi: save failed",
				"jobId", payload.JobID,
				"attachmentId", payload.AttachmentID,
				"step", string(step),
				"error", err)
			writeFailure(w, failureStatus(err), err.Error(), string(step))
			return
		}

		writeJSON(w, http.StatusOK, successResponse{
			Result:  result,
			Message: "PDF form completed and uploaded successfully",
		})
	})
}

func failureStatus(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	var uploadErr *submit.UploadError
	if errors.As(err, &uploadErr) {
		return http.StatusBadGateway
	}
	if step, ok := orchestrator.FailedStep(err); ok && step == orchestrator.StepDownload {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if c := httpErr.StatusCode(); c > 0 {
			code = c
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func writeFailure(w http.ResponseWriter, status int, msg, step string) {
	writeJSON(w, status, failureResponse{Success: false, Error: msg, Step: step})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}
