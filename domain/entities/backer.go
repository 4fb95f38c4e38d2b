package entities

import "strings"

// BackerRole is the Open Collective member role for paying supporters
const BackerRole = "BACKER"

// Backer is an Open Collective membership record
type Backer struct {
	ID          string  // Opaque member identifier
	Role        string  // Membership category, e.g. BACKER, ADMIN, HOST
	Name        string  // Public profile name, informational only
	Description *string // Free-text profile description, nil when unset
	Tier        *string // Funding tier name, nil when the member has no tier
}

// IsBacker reports whether the record belongs to a paying supporter
func (b Backer) IsBacker() bool {
	return strings.EqualFold(b.Role, BackerRole)
}

// TierName returns the tier or an empty string
func (b Backer) TierName() string {
	if b.Tier == nil {
		return ""
	}
	return *b.Tier
}

// DescriptionText returns the description or an empty string
func (b Backer) DescriptionText() string {
	if b.Description == nil {
		return ""
	}
	return *b.Description
}
