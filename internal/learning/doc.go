// Package learning layers a feedback-trained predictor on top of the
// rule-based ranking score. An ensemble of ridge regressors trained on
// bootstrap resamples of the user's feedback provides both a predicted score
// and an uncertainty estimate; the pipeline blends prediction and rule score
// by confidence, so an untrained or unsure model degrades gracefully to the
// rules.
package learning
