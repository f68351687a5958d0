package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-transcript-service/internal/models"
)

func TestStructuredTranscriptSchema(t *testing.T) {
	raw, err := StructuredTranscriptSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "array", doc["type"])
	items, ok := doc["items"].(map[string]any)
	require.True(t, ok, "items should be an object schema")
	assert.NotContains(t, items, "$schema")

	props, ok := items["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "speaker")
	assert.Contains(t, props, "text")

	speaker := props["speaker"].(map[string]any)
	assert.ElementsMatch(t, []any{"Doctor", "Patient"}, speaker["enum"])
}

func TestValidator_Validate(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	t.Run("valid transcript", func(t *testing.T) {
		st := models.StructuredTranscript{
			{Speaker: models.SpeakerDoctor, Text: "What brings you in today?"},
			{Speaker: models.SpeakerPatient, Text: "I've had a headache for three days."},
		}
		assert.NoError(t, v.Validate(st))
	})

	t.Run("empty transcript", func(t *testing.T) {
		assert.NoError(t, v.Validate(models.StructuredTranscript{}))
	})

	t.Run("unknown speaker", func(t *testing.T) {
		st := models.StructuredTranscript{{Speaker: "Nurse", Text: "Please wait here."}}
		assert.Error(t, v.Validate(st))
	})

	t.Run("empty text", func(t *testing.T) {
		st := models.StructuredTranscript{{Speaker: models.SpeakerDoctor, Text: ""}}
		assert.Error(t, v.Validate(st))
	})
}

func TestValidator_ValidateJSON(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `[{"speaker":"Doctor","text":"Hello"}]`, false},
		{"missing text", `[{"speaker":"Doctor"}]`, true},
		{"extra field", `[{"speaker":"Doctor","text":"Hello","confidence":0.9}]`, true},
		{"not an array", `{"speaker":"Doctor","text":"Hello"}`, true},
		{"malformed", `[{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateJSON([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.NotEmpty(t, v.Schema())
}
