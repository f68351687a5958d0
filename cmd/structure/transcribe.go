package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "clinical-transcript-service/internal/http"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

func newTranscribeCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Send a recording to the service's speech-to-text endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to open audio file: %w", err)
			}
			describeWAV(audio)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			text, err := transcribe(ctx, http.DefaultClient, server, audio)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", defaultServer, "Transcript service base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Request timeout")

	return cmd
}

// describeWAV logs the format of a RIFF/WAVE recording. Other containers
// are sent as is.
func describeWAV(audio []byte) {
	if len(audio) < wavHeaderSize {
		return
	}
	header := audio[:wavHeaderSize]
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return
	}

	log.Info().
		Uint16("format", binary.LittleEndian.Uint16(header[20:22])).
		Uint16("channels", binary.LittleEndian.Uint16(header[22:24])).
		Uint32("sampleRate", binary.LittleEndian.Uint32(header[24:28])).
		Uint16("bitsPerSample", binary.LittleEndian.Uint16(header[34:36])).
		Msg("WAV file")
}

func transcribe(ctx context.Context, client *http.Client, server string, audio []byte) (string, error) {
	payload, err := json.Marshal(httpapi.TranscribeRequest{
		AudioContent: base64.StdEncoding.EncodeToString(audio),
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(server, "/") + "/api/transcribe"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", serverError(resp.StatusCode, data)
	}

	var tr httpapi.TranscribeResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return tr.Transcript, nil
}
