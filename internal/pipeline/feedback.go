package pipeline

import (
	"context"
	"strings"

	"daybrief/internal/brief"
	"daybrief/internal/learning"
	"daybrief/internal/logging"
	"daybrief/internal/memory"
	"daybrief/internal/services"
)

const feedbackWindow = 50

// RecordFeedback ingests one user reaction: the event is persisted, the
// user's ranking weights drift from the recent feedback window, and — when
// the item is found in the user's latest bundle — a training sample is
// derived for the learning engine.
func (o *Orchestrator) RecordFeedback(ctx context.Context, event brief.FeedbackEvent) error {
	if event.UserID == "" || event.ItemRef == "" {
		return services.Wrap(services.ErrValidation, "feedback", "record", "user id and item ref required", nil)
	}
	if !validAction(event.Action) {
		return services.Wrap(services.ErrValidation, "feedback", "record",
			"unknown action "+string(event.Action), nil)
	}

	if err := o.memory.RecordFeedback(ctx, event); err != nil {
		return err
	}

	ranker, engine := o.users.ForUser(event.UserID)
	recent, err := o.memory.ListFeedback(ctx, event.UserID, feedbackWindow)
	if err != nil {
		return err
	}
	ranker.AdjustFromFeedback(recent)

	if engine == nil {
		return nil
	}
	target, ok := learning.TargetForAction(event.Action)
	if !ok {
		return nil
	}
	item := o.findBundledItem(ctx, event.UserID, event.ItemRef)
	if item == nil || item.Ranking == nil {
		o.logger.Debug("no bundled item for feedback, skipping training sample",
			logging.String(logging.FieldUserID, event.UserID),
			logging.String(logging.FieldItemRef, event.ItemRef),
		)
		return nil
	}
	sample := memory.TrainingSample{
		Features: item.Ranking.Features(),
		Target:   target,
	}
	if err := o.memory.AddTrainingSample(ctx, event.UserID, sample); err != nil {
		return err
	}
	engine.NoteSample()
	return nil
}

func (o *Orchestrator) findBundledItem(ctx context.Context, userID, itemRef string) *brief.Item {
	if o.bundles == nil {
		return nil
	}
	bundle, err := o.bundles.LoadLatest(ctx, userID)
	if err != nil {
		return nil
	}
	return bundle.FindItem(itemRef)
}

func validAction(action brief.FeedbackAction) bool {
	switch brief.FeedbackAction(strings.TrimSpace(string(action))) {
	case brief.FeedbackSave, brief.FeedbackThumbUp, brief.FeedbackOpen,
		brief.FeedbackThumbDown, brief.FeedbackDismiss, brief.FeedbackLessLikeThis:
		return true
	default:
		return false
	}
}
