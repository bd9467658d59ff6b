package memory

import (
	"context"
	"fmt"
	"time"

	"daybrief/internal/brief"
)

// RecordFeedback appends one user reaction event.
func (s *Store) RecordFeedback(ctx context.Context, event brief.FeedbackEvent) error {
	created := event.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback_events (user_id, item_ref, action, created_at) VALUES (?, ?, ?, ?)`,
		event.UserID,
		event.ItemRef,
		string(event.Action),
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert feedback event: %w", err)
	}
	return nil
}

// ListFeedback returns a user's most recent feedback events, newest first.
func (s *Store) ListFeedback(ctx context.Context, userID string, limit int) ([]brief.FeedbackEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, item_ref, action, created_at
         FROM feedback_events WHERE user_id = ?
         ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback events: %w", err)
	}
	defer rows.Close()

	var events []brief.FeedbackEvent
	for rows.Next() {
		var (
			event      brief.FeedbackEvent
			action     string
			createdRaw string
		)
		if err := rows.Scan(&event.UserID, &event.ItemRef, &action, &createdRaw); err != nil {
			return nil, err
		}
		event.Action = brief.FeedbackAction(action)
		if created, err := parseTimeString(createdRaw); err == nil {
			event.CreatedAt = created
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// AddTrainingSample appends one feedback-derived training example.
func (s *Store) AddTrainingSample(ctx context.Context, userID string, sample TrainingSample) error {
	created := sample.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_samples
         (user_id, relevance, urgency, credibility, impact, actionability, target, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID,
		sample.Features[0],
		sample.Features[1],
		sample.Features[2],
		sample.Features[3],
		sample.Features[4],
		sample.Target,
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert training sample: %w", err)
	}
	return nil
}

// TrainingSamples returns a user's most recent training examples, oldest
// first so training sees them in arrival order.
func (s *Store) TrainingSamples(ctx context.Context, userID string, limit int) ([]TrainingSample, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT relevance, urgency, credibility, impact, actionability, target, created_at
         FROM (
             SELECT id, relevance, urgency, credibility, impact, actionability, target, created_at
             FROM training_samples WHERE user_id = ? ORDER BY id DESC LIMIT ?
         ) ORDER BY id ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list training samples: %w", err)
	}
	defer rows.Close()

	var samples []TrainingSample
	for rows.Next() {
		var (
			sample     TrainingSample
			createdRaw string
		)
		if err := rows.Scan(
			&sample.Features[0],
			&sample.Features[1],
			&sample.Features[2],
			&sample.Features[3],
			&sample.Features[4],
			&sample.Target,
			&createdRaw,
		); err != nil {
			return nil, err
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			sample.CreatedAt = created
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// CountTrainingSamples returns how many training examples a user has.
func (s *Store) CountTrainingSamples(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM training_samples WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count training samples: %w", err)
	}
	return count, nil
}
