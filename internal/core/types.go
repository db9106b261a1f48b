package core

import "time"

const (
	AppName    = "Mareen"
	AppVersion = "0.1.0"
)

// Speaker identifies who produced a message.
type Speaker string

const (
	SpeakerUser  Speaker = "USER"
	SpeakerAgent Speaker = "AGENT"
)

func (s Speaker) Valid() bool {
	return s == SpeakerUser || s == SpeakerAgent
}

// Message intents written by the orchestrator.
const (
	IntentChat  = "chat"
	IntentError = "error"
)

// Session is one bounded conversational interaction.
type Session struct {
	ID           string         `json:"session_id"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      *time.Time     `json:"end_time"`
	MessageCount int            `json:"message_count"`
	Metadata     map[string]any `json:"metadata"`
}

// Open reports whether the session has not been ended yet.
func (s Session) Open() bool {
	return s.EndTime == nil
}

// Message is an immutable entry of a session. IDs grow monotonically and,
// within a session, follow timestamp order.
type Message struct {
	ID           int64          `json:"id"`
	SessionID    string         `json:"session_id"`
	Timestamp    time.Time      `json:"timestamp"`
	Speaker      Speaker        `json:"speaker"`
	Text         string         `json:"text"`
	Intent       string         `json:"intent,omitempty"`
	ResponseTime *time.Duration `json:"response_time,omitempty"`
}

// SearchResult is a text match joined with its session.
type SearchResult struct {
	Message
	SessionStart    time.Time      `json:"session_start"`
	SessionMetadata map[string]any `json:"session_metadata,omitempty"`
}

// Stats summarises the session store.
type Stats struct {
	TotalSessions        int             `json:"total_sessions"`
	TotalMessages        int             `json:"total_messages"`
	BySpeaker            map[Speaker]int `json:"by_speaker"`
	AverageSessionLength float64         `json:"average_session_length"`
	DatabasePath         string          `json:"database_path,omitempty"`
}

// ScoredMemory is a retrieval hit. It is computed per query and never stored.
type ScoredMemory struct {
	Message    Message
	Similarity float64
	Recency    float64
	FinalScore float64
}

// Chat roles understood by the generation backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the live conversation handed to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
