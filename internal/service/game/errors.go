package game

import "errors"

// 以下错误只用于日志与计数，不会返回给客户端
var (
	ErrUnknownRequest     = errors.New("unknown_request")
	ErrMalformedRequest   = errors.New("malformed_request")
	ErrConnClosed         = errors.New("connection_closed")
	ErrNotMember          = errors.New("not_member")
	ErrNotLeader          = errors.New("not_leader")
	ErrNotActivePlayer    = errors.New("not_active_player")
	ErrWrongStage         = errors.New("wrong_stage")
	ErrNoSession          = errors.New("no_session")
	ErrNotEnoughPlayers   = errors.New("not_enough_players")
	ErrInvalidTarget      = errors.New("invalid_target")
	ErrEmptyText          = errors.New("empty_text")
	ErrActivePlayerSubmit = errors.New("active_player_submit")
	ErrUnknownSubmission  = errors.New("unknown_submission")
	ErrAlreadyVoted       = errors.New("already_voted")
	ErrLastRound          = errors.New("last_round")
	ErrStaleTimeout       = errors.New("stale_timeout")
)
