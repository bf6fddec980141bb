package game

// Rules is the static scoring and defeat configuration of a session.
type Rules struct {
	WrongForgePenalty  int  // subtracted from score on a failed forge attempt
	DefeatOnOutOfMoves bool // reaching zero moves ends the session
	DefeatOnTimeout    bool // the order timer reaching zero ends the session
	ClampScoreToZero   bool // score never drops below zero

	// NewOrderOnTimeout starts a fresh order when the timer runs out and
	// DefeatOnTimeout is off. When false the round stays frozen at zero.
	NewOrderOnTimeout bool
}

// DefaultRules mirrors the shipped game configuration.
func DefaultRules() Rules {
	return Rules{
		WrongForgePenalty:  5,
		DefeatOnOutOfMoves: true,
		DefeatOnTimeout:    true,
		ClampScoreToZero:   true,
	}
}

func (r Rules) clamp(score int) int {
	if r.ClampScoreToZero && score < 0 {
		return 0
	}
	return score
}
