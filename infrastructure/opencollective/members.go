package opencollective

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"backersync/domain/entities"
)

// Member is one record of the members.json endpoint
type Member struct {
	MemberID    OpaqueID `json:"MemberId"`
	ID          OpaqueID `json:"id"`
	Type        string   `json:"type"`
	Role        string   `json:"role"`
	Tier        *string  `json:"tier"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
}

// ToEntity converts the record into a domain backer
func (m Member) ToEntity() entities.Backer {
	id := string(m.ID)
	if id == "" {
		id = string(m.MemberID)
	}
	return entities.Backer{
		ID:          id,
		Role:        m.Role,
		Name:        m.Name,
		Description: m.Description,
		Tier:        m.Tier,
	}
}

// OpaqueID accepts identifiers encoded as JSON strings or numbers
type OpaqueID string

// UnmarshalJSON implements json.Unmarshaler
func (o *OpaqueID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*o = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = OpaqueID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid member id %s: %w", strings.TrimSpace(string(data)), err)
		}
		*o = OpaqueID(n.String())
		return nil
	}
}
