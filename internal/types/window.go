package types

import (
	"github.com/google/uuid"
)

// Unknown is the sentinel every structured attribute falls back to when the
// vision model returns nothing usable for that field.
const Unknown = "unknown"

// StructuredAttributes is the seven-field categorical summary of a window
// image. Values are either one of the field's domain values or Unknown.
type StructuredAttributes struct {
	Daytime   string `gorm:"column:daytime" json:"daytime"`
	Location  string `gorm:"column:location" json:"location"`
	Type      string `gorm:"column:window_type" json:"type"`
	Material  string `gorm:"column:material" json:"material"`
	Panes     string `gorm:"column:panes" json:"panes"`
	Covering  string `gorm:"column:covering" json:"covering"`
	OpenState string `gorm:"column:open_state" json:"openState"`
}

// Window is the canonical catalog entity. Rows are append-only: created once
// by ingestion, never mutated or deleted.
type Window struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Seq records insertion order and is the stable tie-break when sorting
	// by created_at.
	Seq         int64                `gorm:"autoIncrement;uniqueIndex" json:"-"`
	Hash        string               `gorm:"column:hash;size:64;not null;index" json:"hash"`
	IsDuplicate bool                 `gorm:"column:is_duplicate;not null;default:false" json:"isDuplicate"`
	CreatedAt   int64                `gorm:"column:created_at;not null;index" json:"createdAt"`
	ImageURL    string               `gorm:"column:image_url;not null" json:"imageUrl"`
	Description string               `gorm:"column:description;type:text" json:"description"`
	Attributes  StructuredAttributes `gorm:"embedded" json:"structured_data"`
}

func (Window) TableName() string { return "window" }

// AttributeFields lists the structured attribute names in their canonical
// order, matching the query parameter names on the listing endpoint.
var AttributeFields = []string{"daytime", "location", "type", "material", "panes", "covering", "openState"}

// AttributeDomains maps each structured attribute to its closed value set.
// Unknown is always a member.
var AttributeDomains = map[string][]string{
	"daytime":   {"day", "night", Unknown},
	"location":  {"interior", "exterior", Unknown},
	"type":      {"fixed", "sliding", "casement", "awning", "hung", "pivot", Unknown},
	"material":  {"wood", "aluminum", "pvc", Unknown},
	"panes":     {"1", "2", "3", Unknown},
	"covering":  {"curtains", "blinds", "none", Unknown},
	"openState": {"open", "closed", "ajar", Unknown},
}

// AttributeColumns maps attribute names to their database columns.
var AttributeColumns = map[string]string{
	"daytime":   "daytime",
	"location":  "location",
	"type":      "window_type",
	"material":  "material",
	"panes":     "panes",
	"covering":  "covering",
	"openState": "open_state",
}

// InAttributeDomain reports whether value is a legal value for field.
func InAttributeDomain(field, value string) bool {
	domain, ok := AttributeDomains[field]
	if !ok {
		return false
	}
	for _, v := range domain {
		if v == value {
			return true
		}
	}
	return false
}

// NormalizeAttribute coerces untrusted model output into field's domain.
// Anything outside the domain becomes Unknown.
func NormalizeAttribute(field, value string) string {
	if InAttributeDomain(field, value) {
		return value
	}
	return Unknown
}

// UnknownAttributes returns the group with every field set to Unknown.
func UnknownAttributes() StructuredAttributes {
	return StructuredAttributes{
		Daytime:   Unknown,
		Location:  Unknown,
		Type:      Unknown,
		Material:  Unknown,
		Panes:     Unknown,
		Covering:  Unknown,
		OpenState: Unknown,
	}
}
