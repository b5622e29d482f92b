package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/propdeskhq/propdesk/pkg/tone"
)

// ToneStore implements tone.Store. Pattern lists are stored as JSONB; the
// whole row is replaced on every analysis run.
type ToneStore struct {
	db *sql.DB
}

func (s *ToneStore) SaveProfile(ctx context.Context, p *tone.Profile) error {
	greetings, err := json.Marshal(emptyIfNil(p.GreetingPatterns))
	if err != nil {
		return fmt.Errorf("failed to marshal greeting patterns: %w", err)
	}
	closings, err := json.Marshal(emptyIfNil(p.ClosingPatterns))
	if err != nil {
		return fmt.Errorf("failed to marshal closing patterns: %w", err)
	}
	phrases, err := json.Marshal(emptyIfNil(p.CommonPhrases))
	if err != nil {
		return fmt.Errorf("failed to marshal common phrases: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tone_profiles (user_id, formality, greeting_patterns,
			closing_patterns, common_phrases, avg_sentence_length, message_count, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			formality = EXCLUDED.formality,
			greeting_patterns = EXCLUDED.greeting_patterns,
			closing_patterns = EXCLUDED.closing_patterns,
			common_phrases = EXCLUDED.common_phrases,
			avg_sentence_length = EXCLUDED.avg_sentence_length,
			message_count = EXCLUDED.message_count,
			analyzed_at = EXCLUDED.analyzed_at`,
		p.UserID, p.Formality, greetings, closings, phrases,
		p.AvgSentenceLength, p.MessageCount, p.AnalyzedAt)
	return err
}

func (s *ToneStore) GetProfile(ctx context.Context, userID int) (*tone.Profile, error) {
	var p tone.Profile
	var greetings, closings, phrases []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, formality, greeting_patterns, closing_patterns,
			common_phrases, avg_sentence_length, message_count, analyzed_at
		FROM tone_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Formality, &greetings, &closings, &phrases,
			&p.AvgSentenceLength, &p.MessageCount, &p.AnalyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tone.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(greetings, &p.GreetingPatterns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal greeting patterns: %w", err)
	}
	if err := json.Unmarshal(closings, &p.ClosingPatterns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal closing patterns: %w", err)
	}
	if err := json.Unmarshal(phrases, &p.CommonPhrases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal common phrases: %w", err)
	}
	return &p, nil
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
