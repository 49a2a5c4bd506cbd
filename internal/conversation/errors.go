package conversation

import "errors"

var (
	ErrTurnPending      = errors.New("assistant turn still pending")
	ErrNoPendingTurn    = errors.New("no pending assistant turn")
	ErrUnknownTemplate  = errors.New("unknown conversation template")
	ErrUnknownStyle     = errors.New("unknown separator style")
	ErrInvalidTemplate  = errors.New("invalid conversation template")
	ErrFirstTurnNotUser = errors.New("first turn must come from the user")
)
