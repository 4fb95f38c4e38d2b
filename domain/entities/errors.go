package entities

import "errors"

// Fatal sync errors. Any of these aborts the whole run.
var (
	ErrGuildNotFound = errors.New("guild not found")
	ErrUnknownTier   = errors.New("tier has no mapped role")
	ErrRoleNotFound  = errors.New("mapped role not found in guild")
)
