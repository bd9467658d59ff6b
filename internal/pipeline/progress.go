package pipeline

// Stage names the pipeline phases in execution order.
type Stage string

const (
	StageInit      Stage = "init"
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StageNovelty   Stage = "novelty"
	StageRanking   Stage = "ranking"
	StageSelection Stage = "selection"
	StageSynthesis Stage = "synthesis"
	StagePackaging Stage = "packaging"
	StageComplete  Stage = "complete"
	StageError     Stage = "error"
)

// stageProgress maps each stage boundary to its progress fraction.
var stageProgress = map[Stage]float64{
	StageInit:      0.0,
	StageFetch:     0.1,
	StageNormalize: 0.3,
	StageNovelty:   0.4,
	StageRanking:   0.5,
	StageSelection: 0.6,
	StageSynthesis: 0.7,
	StagePackaging: 0.9,
	StageComplete:  1.0,
	StageError:     1.0,
}

// ProgressFunc observes stage transitions. Callbacks run synchronously on the
// pipeline goroutine; panics are swallowed so a broken observer can never
// abort a run.
type ProgressFunc func(stage Stage, progress float64, message string)

func notify(callback ProgressFunc, stage Stage, message string) {
	if callback == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	callback(stage, stageProgress[stage], message)
}
