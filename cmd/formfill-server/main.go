// Command formfill-server exposes the completion pipeline over HTTP. It
// downloads originals from and uploads completed forms to the backend named
// in the YAML config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/goliatone/go-formfill/components/formapi"
	"github.com/goliatone/go-formfill/internal/config"
	"github.com/goliatone/go-formfill/pkg/orchestrator"
	"github.com/goliatone/go-formfill/pkg/submit"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client := &http.Client{Timeout: cfg.Upload.Timeout()}

	uploaderOpts := []submit.HTTPOption{submit.WithHTTPClient(client)}
	if cfg.Upload.Token != "" {
		uploaderOpts = append(uploaderOpts, submit.WithHeader("Authorization", "Bearer "+cfg.Upload.Token))
	}
	if cfg.Upload.AppKey != "" {
		uploaderOpts = append(uploaderOpts, submit.WithHeader("ST-App-Key", cfg.Upload.AppKey))
	}
	uploader, err := submit.NewHTTPUploader(cfg.Upload.BaseURL, uploaderOpts...)
	if err != nil {
		log.Fatalf("configure uploader: %v", err)
	}

	pipeline := orchestrator.New(
		orchestrator.WithDownloader(attachmentDownloader(client, cfg.Upload)),
		orchestrator.WithUploader(uploader),
		orchestrator.WithLogger(logger),
	)

	mux := http.NewServeMux()
	component := formapi.New(
		formapi.WithPipeline(pipeline),
		formapi.WithLogger(logger),
	)
	path, err := component.RegisterRoutes(mux, "")
	if err != nil {
		log.Fatalf("register routes: %v", err)
	}

	logger.Info("formfill-server listening", "addr", cfg.Listen, "route", path)
	if err := http.ListenAndServe(cfg.Listen, mux); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// attachmentDownloader fetches an original attachment's bytes by id from the
// forms backend.
func attachmentDownloader(client *http.Client, cfg config.Upload) orchestrator.Downloader {
	return orchestrator.DownloaderFunc(func(ctx context.Context, documentID string) ([]byte, error) {
		endpoint := fmt.Sprintf("%s/jobs/attachment/%s", cfg.BaseURL, url.PathEscape(documentID))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build download request: %w", err)
		}
		if cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.Token)
		}
		if cfg.AppKey != "" {
			req.Header.Set("ST-App-Key", cfg.AppKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download attachment: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("download attachment: status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
}
