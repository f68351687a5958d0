package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clinical-transcript-service/internal/display"
	httpapi "clinical-transcript-service/internal/http"
	"clinical-transcript-service/internal/models"
)

const defaultServer = "http://localhost:5000"

func newUploadCmd() *cobra.Command {
	var (
		server  string
		format  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a transcript file to a running service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			records, err := uploadTranscript(ctx, http.DefaultClient, server, args[0])
			if err != nil {
				return err
			}
			return display.Print(cmd.OutOrStdout(), records, format)
		},
	}

	cmd.Flags().StringVar(&server, "server", defaultServer, "Transcript service base URL")
	cmd.Flags().StringVarP(&format, "format", "f", display.FormatJSON, "Output format (json, yaml, text)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Request timeout")

	return cmd
}

// uploadTranscript posts path as the "file" form field and decodes the
// structured records from the reply.
func uploadTranscript(ctx context.Context, client *http.Client, server, path string) (models.StructuredTranscript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(server, "/") + "/api/upload-transcript"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp.StatusCode, data)
	}

	var up httpapi.UploadResponse
	if err := json.Unmarshal(data, &up); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	var records models.StructuredTranscript
	if err := json.Unmarshal([]byte(up.StructuredJSON), &records); err != nil {
		return nil, fmt.Errorf("failed to decode structured transcript: %w", err)
	}
	return records, nil
}

// serverError turns an error reply into a Go error.
func serverError(status int, body []byte) error {
	var e httpapi.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return fmt.Errorf("server returned %d: %s", status, e.Error)
	}
	return fmt.Errorf("server returned %d: %s", status, strings.TrimSpace(string(body)))
}
