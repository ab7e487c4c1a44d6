// Command formfill-cli flattens a field layout onto a local PDF. With
// -interactive it walks the layout and prompts for each field's content
// before rendering; with -upload it posts the result to the configured
// backend instead of only writing a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/AlecAivazis/survey/v2"

	"github.com/goliatone/go-formfill/internal/config"
	"github.com/goliatone/go-formfill/pkg/field"
	"github.com/goliatone/go-formfill/pkg/overlay"
	"github.com/goliatone/go-formfill/pkg/submit"
)

func main() {
	pdfPath := flag.String("pdf", "", "path to the original PDF form")
	layoutPath := flag.String("layout", "", "path to the field layout (JSON array)")
	outputPath := flag.String("output", "completed.pdf", "output file")
	interactive := flag.Bool("interactive", false, "prompt for field content before rendering")
	upload := flag.Bool("upload", false, "upload the result after rendering")
	configPath := flag.String("config", "config.yaml", "config file (used with -upload)")
	jobID := flag.String("job", "", "container/job id for the upload")
	flag.Parse()

	if *pdfPath == "" || *layoutPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	original, err := os.ReadFile(*pdfPath)
	if err != nil {
		log.Fatalf("read pdf: %v", err)
	}
	layout, err := os.ReadFile(*layoutPath)
	if err != nil {
		log.Fatalf("read layout: %v", err)
	}
	fields, err := field.DecodeJSON(layout)
	if err != nil {
		log.Fatalf("decode layout: %v", err)
	}

	if *interactive {
		if err := promptFields(fields); err != nil {
			log.Fatalf("fill fields: %v", err)
		}
	}

	output, report, err := overlay.New().Render(ctx, original, fields)
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	if report.FieldFailures > 0 || len(report.SkippedPages) > 0 {
		log.Printf("render degraded: %d field failures, skipped pages %v",
			report.FieldFailures, report.SkippedPages)
	}

	if err := os.WriteFile(*outputPath, output, 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}
	fmt.Printf("Rendered %d fields to %s (%d bytes)\n", report.FieldsRendered, *outputPath, len(output))

	if !*upload {
		return
	}
	if *jobID == "" {
		log.Fatal("upload requires -job")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	uploader, err := newUploader(cfg.Upload)
	if err != nil {
		log.Fatalf("configure uploader: %v", err)
	}

	result, err := submit.NewPipeline(uploader).Submit(ctx, *jobID, output, *pdfPath, field.Summarize(fields))
	if err != nil {
		log.Fatalf("upload: %v", err)
	}
	fmt.Printf("Uploaded %s (%d bytes) as id %s\n", result.FileName, result.ByteSize, result.ID)
}

func newUploader(cfg config.Upload) (submit.Uploader, error) {
	opts := []submit.HTTPOption{
		submit.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
	}
	if cfg.Token != "" {
		opts = append(opts, submit.WithHeader("Authorization", "Bearer "+cfg.Token))
	}
	if cfg.AppKey != "" {
		opts = append(opts, submit.WithHeader("ST-App-Key", cfg.AppKey))
	}
	return submit.NewHTTPUploader(cfg.BaseURL, opts...)
}

// promptFields asks for content per field, by type.
func promptFields(fields []field.Field) error {
	for i := range fields {
		f := &fields[i]
		label := fmt.Sprintf("%s (%s, page %d)", f.ID, f.Type, f.Page)

		switch f.Type {
		case field.TypeCheckbox:
			var checked bool
			prompt := &survey.Confirm{
				Message: "Check " + label + "?",
				Default: f.Content.Checked(),
			}
			if err := survey.AskOne(prompt, &checked); err != nil {
				return err
			}
			f.SetContent(checked)

		case field.TypeSignature:
			var path string
			prompt := &survey.Input{
				Message: "Signature image file for " + label + " (empty to skip):",
			}
			if err := survey.AskOne(prompt, &path); err != nil {
				return err
			}
			if path == "" {
				continue
			}
			payload, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read signature image: %w", err)
			}
			f.SetContent(payload)

		default:
			var text string
			prompt := &survey.Input{
				Message: "Value for " + label + ":",
				Default: f.Content.Text(),
			}
			if err := survey.AskOne(prompt, &text); err != nil {
				return err
			}
			f.SetContent(text)
		}
	}
	return nil
}
