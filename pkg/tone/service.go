package tone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propdeskhq/propdesk/pkg/logger"
)

var (
	// ErrProfileNotFound is returned when a user has no tone profile yet
	ErrProfileNotFound = errors.New("tone profile not found")
	// ErrNotEnoughMessages is returned when there is too little outbound
	// history to analyze
	ErrNotEnoughMessages = errors.New("not enough outbound messages to analyze")
	// ErrAnalysisFailed is returned when the model response is unusable
	ErrAnalysisFailed = errors.New("tone analysis failed")
)

// MinMessages is the outbound history floor below which analysis refuses to
// run rather than produce a profile from noise.
const MinMessages = 5

// sampleLimit caps how much history one analysis reads.
const sampleLimit = 50

// Profile captures how a user writes. Each re-analysis replaces the whole
// profile; fields are never merged across runs.
type Profile struct {
	UserID            int       `json:"user_id"`
	Formality         string    `json:"formality"`
	GreetingPatterns  []string  `json:"greeting_patterns"`
	ClosingPatterns   []string  `json:"closing_patterns"`
	CommonPhrases     []string  `json:"common_phrases"`
	AvgSentenceLength float64   `json:"avg_sentence_length"`
	MessageCount      int       `json:"message_count"`
	AnalyzedAt        time.Time `json:"analyzed_at"`
}

// Store persists tone profiles, one per user.
type Store interface {
	// SaveProfile replaces the user's profile.
	SaveProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, userID int) (*Profile, error)
}

// MessageSource supplies a user's recent outbound message bodies,
// newest first.
type MessageSource interface {
	RecentOutboundBodies(ctx context.Context, userID, limit int) ([]string, error)
}

// Completer is the LLM surface the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error)
}

// Service computes per-user writing-style profiles.
type Service struct {
	store    Store
	messages MessageSource
	llm      Completer
	log      logger.Logger
}

// NewService creates a new tone service
func NewService(store Store, messages MessageSource, llm Completer, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:    store,
		messages: messages,
		llm:      llm,
		log:      log,
	}
}

// Get returns the user's current profile.
func (s *Service) Get(ctx context.Context, userID int) (*Profile, error) {
	return s.store.GetProfile(ctx, userID)
}

const analysisSystemPrompt = `You analyze how a property manager writes to tenants and owners.
Reply with a single JSON object, no prose, with keys:
"formality" (one of: formal, professional, casual),
"greeting_patterns" (up to 3 strings),
"closing_patterns" (up to 3 strings),
"common_phrases" (up to 5 strings).`

// llmProfile is the shape the model is asked to return.
type llmProfile struct {
	Formality        string   `json:"formality"`
	GreetingPatterns []string `json:"greeting_patterns"`
	ClosingPatterns  []string `json:"closing_patterns"`
	CommonPhrases    []string `json:"common_phrases"`
}

// Analyze rebuilds the user's profile from their recent outbound messages
// and replaces whatever profile existed before.
func (s *Service) Analyze(ctx context.Context, userID int) (*Profile, error) {
	bodies, err := s.messages.RecentOutboundBodies(ctx, userID, sampleLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load outbound messages: %w", err)
	}
	if len(bodies) < MinMessages {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughMessages, len(bodies), MinMessages)
	}

	prompt := "Messages:\n- " + strings.Join(bodies, "\n- ")
	raw, err := s.llm.Complete(ctx, prompt, analysisSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	var parsed llmProfile
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		s.log.Warn("unparseable tone analysis response", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: bad model output", ErrAnalysisFailed)
	}

	profile := &Profile{
		UserID:            userID,
		Formality:         parsed.Formality,
		GreetingPatterns:  parsed.GreetingPatterns,
		ClosingPatterns:   parsed.ClosingPatterns,
		CommonPhrases:     parsed.CommonPhrases,
		AvgSentenceLength: avgSentenceLength(bodies),
		MessageCount:      len(bodies),
		AnalyzedAt:        time.Now().UTC(),
	}

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save tone profile: %w", err)
	}
	return profile, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// avgSentenceLength measures mean words per sentence across all messages.
// Computed locally so the number is stable regardless of model behavior.
func avgSentenceLength(bodies []string) float64 {
	sentences := 0
	words := 0
	for _, body := range bodies {
		for _, sentence := range strings.FieldsFunc(body, func(r rune) bool {
			return r == '.' || r == '!' || r == '?'
		}) {
			n := len(strings.Fields(sentence))
			if n == 0 {
				continue
			}
			sentences++
			words += n
		}
	}
	if sentences == 0 {
		return 0
	}
	return float64(words) / float64(sentences)
}
