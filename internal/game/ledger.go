package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func (s *Service) recordFullUpdate(ctx context.Context, session *Session, judged []JudgedWord, at time.Time) error {
	if s.ledger == nil {
		return nil
	}
	if s.logUpdates {
		payload, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("encode ledger payload: %w", err)
		}
		entry := LedgerEntry{
			GameID:    session.ID,
			OwnerID:   session.OwnerID,
			Payload:   payload,
			CreatedAt: at,
		}
		if err := s.ledger.AppendUpdate(ctx, entry); err != nil {
			return fmt.Errorf("append game update: %w", err)
		}
	}
	if len(judged) == 0 {
		return nil
	}
	events := make([]WordEvent, 0, len(judged))
	for _, word := range judged {
		events = append(events, WordEvent{
			GameID:      session.ID,
			Word:        word.Word,
			TimeGuessed: word.TimeGuessed,
			Status:      word.Status,
			CreatedAt:   at,
		})
	}
	if err := s.ledger.AppendWords(ctx, events); err != nil {
		return fmt.Errorf("append words: %w", err)
	}
	return nil
}

func validateJudged(words []JudgedWord) error {
	for i, word := range words {
		if strings.TrimSpace(word.Word) == "" {
			return fmt.Errorf("%w: wordsData[%d] has no word", ErrInvalid, i)
		}
		if !word.Status.Valid() {
			return fmt.Errorf("%w: wordsData[%d] has status %q", ErrInvalid, i, word.Status)
		}
		if word.TimeGuessed < 0 {
			return fmt.Errorf("%w: wordsData[%d] has negative time", ErrInvalid, i)
		}
	}
	return nil
}
