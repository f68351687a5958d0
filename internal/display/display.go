// Package display renders structured transcripts for the terminal.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"clinical-transcript-service/internal/models"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

var (
	doctorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFFF"))
	patientStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD75F"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

// Print writes records to w in the given format.
func Print(w io.Writer, records models.StructuredTranscript, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return printText(w, records)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func printText(w io.Writer, records models.StructuredTranscript) error {
	for _, u := range records {
		if _, err := fmt.Fprintf(w, "%s %s\n", speakerLabel(u.Speaker), u.Text); err != nil {
			return err
		}
	}

	doctor, patient := records.Counts()
	summary := fmt.Sprintf("%d utterances (%d doctor, %d patient)", len(records), doctor, patient)
	_, err := fmt.Fprintln(w, mutedStyle.Render(summary))
	return err
}

func speakerLabel(s models.Speaker) string {
	label := fmt.Sprintf("%-8s", string(s)+":")
	switch s {
	case models.SpeakerDoctor:
		return doctorStyle.Render(label)
	case models.SpeakerPatient:
		return patientStyle.Render(label)
	default:
		return label
	}
}
