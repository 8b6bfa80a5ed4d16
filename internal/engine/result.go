package engine

import (
	"errors"

	"github.com/talgya/vakif/internal/ledger"
	"github.com/talgya/vakif/internal/rules"
)

// Command names carried in results.
const (
	CmdNewGame   = "new_game"
	CmdLoad      = "load_game"
	CmdCollect   = "collect"
	CmdTurn      = "advance_turn"
	CmdBuild     = "build"
	CmdRepair    = "repair"
	CmdFulfill   = "fulfill_need"
	CmdChoose    = "resolve_event"
	CmdAddIdea   = "add_idea"
	CmdVote      = "vote_idea"
	CmdDiplomacy = "diplomatic_action"
	CmdSelect    = "select_city"
	CmdTutorial  = "complete_tutorial"
)

// Result describes what a command changed. A validation rejection is a
// result with OK false and a Reason, not an error.
type Result struct {
	Command  string        `json:"command"`
	OK       bool          `json:"ok"`
	Reason   string        `json:"reason,omitempty"`
	Turn     int           `json:"turn"`
	Log      []string      `json:"log,omitempty"`
	Ledger   ledger.Ledger `json:"ledger"`
	GameOver bool          `json:"game_over"`
	Message  string        `json:"message,omitempty"`
	Data     any           `json:"data,omitempty"`
}

// gated commands are refused once the game has ended.
type gate bool

const (
	frozen gate = true
	always gate = false
)

// run executes a command body and folds its outcome into a Result.
// Rejections come back with a nil error; only ErrGameOver and genuine
// faults are returned as errors.
func (s *Session) run(cmd string, g gate, body func(r *Result) error) (Result, error) {
	s.pending = nil
	if g == frozen && s.GameOver {
		return s.result(cmd, rules.ErrGameOver.Error()), rules.ErrGameOver
	}
	r := Result{Command: cmd}
	err := body(&r)

	res := s.result(cmd, "")
	res.Data = r.Data
	if err != nil {
		if reason, ok := rules.IsRejection(err); ok {
			res.Reason = reason
			return res, nil
		}
		return res, err
	}
	res.OK = true
	return res, nil
}

func (s *Session) result(cmd, reason string) Result {
	res := Result{
		Command:  cmd,
		Reason:   reason,
		Turn:     s.Turn,
		Log:      s.pending,
		Ledger:   s.Ledger.Snapshot(),
		GameOver: s.GameOver,
		Message:  s.GameOverReason,
	}
	s.pending = nil
	return res
}

// IsGameOver reports whether err is the terminal-state refusal.
func IsGameOver(err error) bool {
	return errors.Is(err, rules.ErrGameOver)
}
