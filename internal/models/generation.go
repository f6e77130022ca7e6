package models

// Fixed request defaults applied when the caller does not override them
const (
	DefaultStyle        = "conversational"
	DefaultTone         = "professional"
	DefaultSpeakerCount = 2
	DefaultOutputFormat = "mp3"
	DefaultLength       = "10min"
)

// JobStatus represents the remote generation job state
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the remote job has finished either way
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// GenerationRequest is the payload submitted to the remote generation
// service. Zero-valued fields are filled with the fixed defaults.
type GenerationRequest struct {
	Content      string `json:"document_text"`
	HostVoice    string `json:"host_voice"`
	GuestVoice   string `json:"guest_voice"`
	Style        string `json:"style"`
	Tone         string `json:"tone"`
	SpeakerCount int    `json:"num_speakers"`
	OutputFormat string `json:"output_format"`
	Length       string `json:"length"`
	SaveScript   bool   `json:"save_script"`
}

// ApplyDefaults fills unset fields with the fixed defaults
func (r *GenerationRequest) ApplyDefaults() {
	if r.Style == "" {
		r.Style = DefaultStyle
	}
	if r.Tone == "" {
		r.Tone = DefaultTone
	}
	if r.SpeakerCount == 0 {
		r.SpeakerCount = DefaultSpeakerCount
	}
	if r.OutputFormat == "" {
		r.OutputFormat = DefaultOutputFormat
	}
	if r.Length == "" {
		r.Length = DefaultLength
	}
}

// GenerationResult is the opaque result descriptor supplied by the remote
// service on completion.
type GenerationResult struct {
	AudioFile       string                 `json:"audio_file"`
	ScriptFile      string                 `json:"script_file,omitempty"`
	DurationSeconds float64                `json:"duration_seconds"`
	Cost            float64                `json:"cost"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// GenerationStatus is one poll observation of a remote job
type GenerationStatus struct {
	Status   JobStatus         `json:"status"`
	Progress int               `json:"progress,omitempty"`
	Message  string            `json:"message,omitempty"`
	Result   *GenerationResult `json:"result,omitempty"`
}

// CostEstimate is the remote cost breakdown for a document
type CostEstimate struct {
	LLMCost   float64 `json:"llm_cost"`
	TTSCost   float64 `json:"tts_cost"`
	TotalCost float64 `json:"total_cost"`
}

// VoicePreset describes one selectable voice
type VoicePreset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Style       string `json:"style,omitempty"`
	Description string `json:"description,omitempty"`
}
