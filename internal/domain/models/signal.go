package models

// Action is the decision carried by a Signal.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// ReasonInsufficientData is the reason attached to signals produced from too few bars.
const ReasonInsufficientData = "insufficient data"

// Signal is a strategy decision. Confidence is a relative score in [0,1], not a probability.
// Reason names the triggering condition(s) and is the only audit trail.
type Signal struct {
	Action      Action   `json:"action"`
	Confidence  float64  `json:"confidence"`
	TargetPrice *float64 `json:"target_price,omitempty"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
	Reason      string   `json:"reason"`
}

// Hold returns a hold signal with zero confidence.
func Hold(reason string) Signal {
	return Signal{Action: ActionHold, Reason: reason}
}

// Insufficient returns the hold signal used when a strategy lacks its minimum window.
func Insufficient() Signal {
	return Hold(ReasonInsufficientData)
}

// WithLevels sets target and stop prices; non-positive values are left unset.
func (s Signal) WithLevels(target, stop float64) Signal {
	if target > 0 {
		t := target
		s.TargetPrice = &t
	}
	if stop > 0 {
		st := stop
		s.StopLoss = &st
	}
	return s
}

// SignalRecord is one evaluated signal as written to the signal journal.
type SignalRecord struct {
	Timestamp   int64        `json:"timestamp"`
	Instrument  string       `json:"instrument"`
	Strategy    string       `json:"strategy"`
	Signal      Signal       `json:"signal"`
	RegimeScore float64      `json:"regime_score"`
	IsBullRun   bool         `json:"is_bull_run"`
	Size        PositionSize `json:"size"`
}
