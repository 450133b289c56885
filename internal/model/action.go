package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category classifies which automation engine an action originates from.
type Category string

const (
	CategoryTrading     Category = "trading"
	CategoryContent     Category = "content"
	CategoryDevelopment Category = "development"
	CategoryOther       Category = "other"
)

// Categories lists all valid categories in a stable order.
var Categories = []Category{CategoryTrading, CategoryContent, CategoryDevelopment, CategoryOther}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryTrading, CategoryContent, CategoryDevelopment, CategoryOther:
		return true
	}
	return false
}

// Urgency is the producer-declared urgency of an action.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether u is a known urgency level.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Action is the canonical unit of work submitted by an engine adapter.
// It is immutable once created: downstream stages reference it, never
// mutate it.
type Action struct {
	ID                string         `json:"id"`
	Category          Category       `json:"category"`
	Type              string         `json:"type"`
	FinancialValue    *float64       `json:"financial_value,omitempty"` // USD equivalent
	Reversible        bool           `json:"reversible"`
	Urgency           Urgency        `json:"urgency"`
	ExternallyVisible bool           `json:"externally_visible"`
	Payload           map[string]any `json:"payload,omitempty"`
	SourceEngine      string         `json:"source_engine"`
	CreatedAt         time.Time      `json:"created_at"`
}

// NewAction constructs an Action with a fresh id and timestamp.
// Urgency defaults to normal when empty.
func NewAction(category Category, actionType, sourceEngine string) *Action {
	return &Action{
		ID:           uuid.NewString(),
		Category:     category,
		Type:         actionType,
		Urgency:      UrgencyNormal,
		SourceEngine: sourceEngine,
		CreatedAt:    time.Now().UTC(),
	}
}

// ValidationError describes a malformed action. Actions failing validation
// are rejected outright: never scored, queued, or executed.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid action: %s: %s", e.Field, e.Detail)
}

// Validate checks the required fields and enum values of an action.
func (a *Action) Validate() error {
	if a == nil {
		return &ValidationError{Field: "action", Detail: "nil action"}
	}
	if a.ID == "" {
		return &ValidationError{Field: "id", Detail: "must not be empty"}
	}
	if !a.Category.Valid() {
		return &ValidationError{Field: "category", Detail: fmt.Sprintf("unknown category %q", a.Category)}
	}
	if a.Type == "" {
		return &ValidationError{Field: "type", Detail: "must not be empty"}
	}
	if a.Urgency != "" && !a.Urgency.Valid() {
		return &ValidationError{Field: "urgency", Detail: fmt.Sprintf("unknown urgency %q", a.Urgency)}
	}
	if a.FinancialValue != nil && *a.FinancialValue < 0 {
		return &ValidationError{Field: "financial_value", Detail: "must not be negative"}
	}
	return nil
}

// Value returns the USD financial value, or 0 when none is declared.
func (a *Action) Value() float64 {
	if a.FinancialValue == nil {
		return 0
	}
	return *a.FinancialValue
}
