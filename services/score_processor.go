package services

import "room-leaderboard-service/bindables"

// TrackedScoreSource exposes the running values of the local participant.
type TrackedScoreSource interface {
	TotalScoreBindable() *bindables.Bindable[int64]
	AccuracyBindable() *bindables.Bindable[float64]
	HighestComboBindable() *bindables.Bindable[int]
}

// ScoreProcessor holds the running score of the local participant. Values are
// computed by the gameplay client; this type only carries them.
type ScoreProcessor struct {
	TotalScore   *bindables.Bindable[int64]
	Accuracy     *bindables.Bindable[float64]
	Combo        *bindables.Bindable[int]
	HighestCombo *bindables.Bindable[int]
}

func NewScoreProcessor() *ScoreProcessor {
	return &ScoreProcessor{
		TotalScore:   bindables.NewBindable[int64](0),
		Accuracy:     bindables.NewBindable[float64](1),
		Combo:        bindables.NewBindable[int](0),
		HighestCombo: bindables.NewBindable[int](0),
	}
}

// Apply records the latest running values reported by the client.
func (p *ScoreProcessor) Apply(total int64, accuracy float64, combo int) {
	p.TotalScore.SetValue(total)
	p.Accuracy.SetValue(accuracy)
	p.Combo.SetValue(combo)
	if combo > p.HighestCombo.Value() {
		p.HighestCombo.SetValue(combo)
	}
}

// Reset starts a new attempt.
func (p *ScoreProcessor) Reset() {
	p.TotalScore.SetValue(0)
	p.Accuracy.SetValue(1)
	p.Combo.SetValue(0)
	p.HighestCombo.SetValue(0)
}

func (p *ScoreProcessor) TotalScoreBindable() *bindables.Bindable[int64] { return p.TotalScore }
func (p *ScoreProcessor) AccuracyBindable() *bindables.Bindable[float64] { return p.Accuracy }
func (p *ScoreProcessor) HighestComboBindable() *bindables.Bindable[int] { return p.HighestCombo }
