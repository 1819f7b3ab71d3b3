package state

import "time"

// PlaybackState steps through the moves of one plan.
type PlaybackState struct {
	Step     int           // moves applied so far
	MaxStep  int           // len(plan.Moves)
	Interval time.Duration // time per move at speed 1
	Speed    float64
	Playing  bool

	carry      time.Duration
	lastUpdate time.Time
}

// NewPlaybackState creates a stopped playback over maxStep moves.
func NewPlaybackState(maxStep int) *PlaybackState {
	return &PlaybackState{
		MaxStep:    maxStep,
		Interval:   300 * time.Millisecond,
		Speed:      1.0,
		lastUpdate: time.Now(),
	}
}

// TogglePlay toggles playback, restarting from the first move at the end.
func (p *PlaybackState) TogglePlay() {
	p.Playing = !p.Playing
	if p.Playing {
		p.lastUpdate = time.Now()
		p.carry = 0
		if p.Step >= p.MaxStep {
			p.Step = 0
		}
	}
}

// Pause stops playback.
func (p *PlaybackState) Pause() {
	p.Playing = false
}

// Reset rewinds to the first move.
func (p *PlaybackState) Reset() {
	p.Step = 0
	p.carry = 0
	p.Playing = false
}

// Advance applies as many moves as the elapsed time covers.
func (p *PlaybackState) Advance() {
	p.AdvanceBy(time.Since(p.lastUpdate))
	p.lastUpdate = time.Now()
}

// AdvanceBy applies the moves covered by elapsed.
func (p *PlaybackState) AdvanceBy(elapsed time.Duration) {
	if !p.Playing {
		return
	}
	per := time.Duration(float64(p.Interval) / p.Speed)
	if per <= 0 {
		per = time.Millisecond
	}
	p.carry += elapsed
	for p.carry >= per && p.Step < p.MaxStep {
		p.carry -= per
		p.Step++
	}
	if p.Step >= p.MaxStep {
		p.Step = p.MaxStep
		p.Playing = false
	}
}

// SetStep jumps to step, clamped to the plan.
func (p *PlaybackState) SetStep(step int) {
	p.Step = min(max(step, 0), p.MaxStep)
}

// StepForward applies one move.
func (p *PlaybackState) StepForward() {
	p.Pause()
	p.SetStep(p.Step + 1)
}

// StepBack undoes one move.
func (p *PlaybackState) StepBack() {
	p.Pause()
	p.SetStep(p.Step - 1)
}

// SetSpeed sets the speed multiplier, clamped to [0.25, 8].
func (p *PlaybackState) SetSpeed(speed float64) {
	p.Speed = min(max(speed, 0.25), 8)
}

// Progress returns current progress as 0-1.
func (p *PlaybackState) Progress() float64 {
	if p.MaxStep <= 0 {
		return 0
	}
	return float64(p.Step) / float64(p.MaxStep)
}
