package services

import (
	"regexp"
	"strings"
)

// HandleMode selects how a Discord handle is pulled out of a description
type HandleMode string

const (
	// HandleModeStrict captures the token directly after the first "discord: " marker
	HandleModeStrict HandleMode = "strict"
	// HandleModeLegacy returns the first pattern match anywhere once the marker is present
	HandleModeLegacy HandleMode = "legacy"
)

// handleMarker gates extraction in both modes. The trailing space is significant.
const handleMarker = "discord: "

var (
	// Word characters include non-ASCII letters and digits
	strictHandlePattern = regexp.MustCompile(`^[^\p{L}\p{N}_]*@?([\p{L}\p{N}_]+)`)
	legacyHandlePattern = regexp.MustCompile(`(?i)discord:?[^\p{L}\p{N}_]*@?([\p{L}\p{N}_]+)`)
)

// HandleExtractor finds Discord usernames in backer descriptions
type HandleExtractor struct {
	mode HandleMode
}

// NewHandleExtractor creates an extractor, defaulting to strict mode
func NewHandleExtractor(mode HandleMode) *HandleExtractor {
	if mode != HandleModeLegacy {
		mode = HandleModeStrict
	}
	return &HandleExtractor{mode: mode}
}

// Mode returns the active extraction mode
func (e *HandleExtractor) Mode() HandleMode {
	return e.mode
}

// Extract returns the Discord handle in description, or false when there is none
func (e *HandleExtractor) Extract(description string) (string, bool) {
	markerAt := indexFold(description, handleMarker)
	if markerAt < 0 {
		return "", false
	}

	if e.mode == HandleModeLegacy {
		match := legacyHandlePattern.FindStringSubmatch(description)
		if match == nil {
			return "", false
		}
		return match[1], true
	}

	rest := description[markerAt+len(handleMarker):]
	match := strictHandlePattern.FindStringSubmatch(rest)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// indexFold is a case-insensitive strings.Index for a lowercase ASCII needle.
// Byte offsets stay valid for the original string.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
