// Package models defines the data structures for structured transcripts and
// the events announcing them.
package models

// Speaker is the party an utterance is attributed to.
type Speaker string

const (
	SpeakerDoctor  Speaker = "Doctor"
	SpeakerPatient Speaker = "Patient"
)

// CandidateLabels are the labels offered to the classifier, in order.
var CandidateLabels = []string{string(SpeakerDoctor), string(SpeakerPatient)}

// Utterance is one classified transcript line.
type Utterance struct {
	Speaker Speaker `json:"speaker" yaml:"speaker" jsonschema:"enum=Doctor,enum=Patient"`
	Text    string  `json:"text" yaml:"text" jsonschema:"minLength=1"`
}

// StructuredTranscript is the ordered list of utterances for one transcript.
type StructuredTranscript []Utterance

// Counts returns the number of utterances attributed to each speaker.
func (st StructuredTranscript) Counts() (doctor, patient int) {
	for _, u := range st {
		switch u.Speaker {
		case SpeakerDoctor:
			doctor++
		case SpeakerPatient:
			patient++
		}
	}
	return doctor, patient
}

// StructuredTranscriptEvent announces a transcript that finished processing.
type StructuredTranscriptEvent struct {
	EventType      string      `json:"eventType"`
	EventID        string      `json:"eventId"`
	TranscriptID   string      `json:"transcriptId"`
	Source         string      `json:"source"`
	Output         string      `json:"output"`
	UtteranceCount int         `json:"utteranceCount"`
	DoctorCount    int         `json:"doctorCount"`
	PatientCount   int         `json:"patientCount"`
	Utterances     []Utterance `json:"utterances"`
	Timestamp      int64       `json:"timestamp"`
}

// ID returns the unique ID of the event.
func (e StructuredTranscriptEvent) ID() string {
	return e.EventID
}

// EventTypeStructured is the event type of StructuredTranscriptEvent.
const EventTypeStructured = "clinical.transcript.structured"

// ConversationEntry is one speaker-labelled message of a live consultation.
type ConversationEntry struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

// SavedConversation is the file format written by the save-transcript endpoint.
type SavedConversation struct {
	Room         string              `json:"room"`
	SavedAt      string              `json:"savedAt"`
	Conversation []ConversationEntry `json:"conversation"`
}
