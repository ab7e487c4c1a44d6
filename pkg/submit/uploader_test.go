package submit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-formfill/pkg/field"
)

func TestHTTPUploaderPostsMultipart(t *testing.T) {
	var (
		gotPath  string
		gotAuth  string
		gotName  string
		gotDesc  string
		gotFile  []byte
		gotCType string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotName = r.FormValue("name")
		gotDesc = r.FormValue("description")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotCType = header.Header.Get("Content-Type")
		gotFile, _ = io.ReadAll(file)

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id": 4711}`)
	}))
	defer srv.Close()

	uploader, err := NewHTTPUploader(srv.URL, WithHeader("Authorization", "Bearer token"))
	if err != nil {
		t.Fatalf("NewHTTPUploader: %v", err)
	}

	summary := field.Summary{Text: 2, Checkboxes: 1, CheckedBoxes: 1}
	result, err := uploader.Upload(context.Background(), UploadRequest{
		ContainerID: "job-42",
		FileName:    "Completed - S2502270659@@3.pdf",
		Description: "Completed form with 3 filled fields",
		Data:        []byte("%PDF-1.4 fake"),
		Fields:      summary,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotPath != "/jobs/job-42/attachments" {
		t.Fatalf("path = %q, want /jobs/job-42/attachments", gotPath)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotName != "Completed - S2502270659@@3.pdf" {
		t.Fatalf("name field = %q", gotName)
	}
	if gotDesc != "Completed form with 3 filled fields" {
		t.Fatalf("description field = %q", gotDesc)
	}
	if string(gotFile) != "%PDF-1.4 fake" {
		t.Fatalf("file bytes = %q", gotFile)
	}
	if gotCType != "application/pdf" {
		t.Fatalf("file content type = %q, want application/pdf", gotCType)
	}

	if result.ID != "4711" {
		t.Fatalf("result id = %q, want 4711", result.ID)
	}
	if result.ByteSize != len("%PDF-1.4 fake") {
		t.Fatalf("byte size = %d", result.ByteSize)
	}
	if result.Fields != summary {
		t.Fatalf("summary = %+v, want %+v", result.Fields, summary)
	}
	if result.UploadedAt.IsZero() {
		t.Fatal("uploaded timestamp missing")
	}
}

func TestHTTPUploaderFailurePreservesOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	uploader, err := NewHTTPUploader(srv.URL)
	if err != nil {
		t.Fatalf("NewHTTPUploader: %v", err)
	}

	data := []byte("rendered bytes worth keeping")
	_, err = uploader.Upload(context.Background(), UploadRequest{
		ContainerID: "job-42",
		FileName:    "Completed - x.pdf",
		Data:        data,
	})
	if err == nil {
		t.Fatal("expected an upload error")
	}

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %T (%v), want *UploadError", err, err)
	}
	if upErr.Status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", upErr.Status)
	}
	if upErr.Body != "quota exceeded" {
		t.Fatalf("body = %q", upErr.Body)
	}
	if string(upErr.Output) != string(data) {
		t.Fatal("rendered bytes must survive the failure for retry")
	}
}

func TestHTTPUploaderValidation(t *testing.T) {
	if _, err := NewHTTPUploader("  "); err == nil {
		t.Fatal("blank base URL should be rejected")
	}

	uploader, err := NewHTTPUploader("http://example.invalid")
	if err != nil {
		t.Fatalf("NewHTTPUploader: %v", err)
	}
	if _, err := uploader.Upload(context.Background(), UploadRequest{FileName: "x.pdf", Data: []byte("d")}); err == nil {
		t.Fatal("missing container id should be rejected")
	}
	if _, err := uploader.Upload(context.Background(), UploadRequest{ContainerID: "j", FileName: "x.pdf"}); err == nil {
		t.Fatal("empty payload should be rejected")
	}
}

func TestPipelineSubmitDerivesName(t *testing.T) {
	var got UploadRequest
	pipeline := NewPipeline(UploaderFunc(func(ctx context.Context, req UploadRequest) (UploadResult, error) {
		got = req
		return UploadResult{ID: "1", FileName: req.FileName}, nil
	}))

	summary := field.Summary{Text: 1, Signatures: 1}
	result, err := pipeline.Submit(context.Background(), "job-7", []byte("out"),
		"Attaches/S2502270659@@3-_Gy1Go5m29TYQ~I8RbKS.pdf", summary)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got.FileName != "Completed - S2502270659@@3.pdf" {
		t.Fatalf("derived name = %q", got.FileName)
	}
	if got.Description != "Completed form with 2 filled fields" {
		t.Fatalf("description = %q", got.Description)
	}
	if got.ContainerID != "job-7" {
		t.Fatalf("container = %q", got.ContainerID)
	}
	if result.FileName != got.FileName {
		t.Fatalf("result name = %q", result.FileName)
	}
}

func TestPipelineRequiresUploader(t *testing.T) {
	if _, err := NewPipeline(nil).Submit(context.Background(), "j", []byte("d"), "x.pdf", field.Summary{}); err == nil {
		t.Fatal("nil uploader should error")
	}
}
