// Package transport defines the request and response DTOs for the rules API.
package transport

import (
	"time"

	"rcm_backend/internal/rules/repository"

	"github.com/google/uuid"
)

type CreateRuleRequest struct {
	Name                 string  `json:"name" validate:"required,min=1,max=100"`
	Description          *string `json:"description,omitempty" validate:"omitempty,max=500"`
	PayerPattern         string  `json:"payerPattern" validate:"required,min=1,max=200"`
	CPTPattern           string  `json:"cptPattern" validate:"required,min=1,max=20"`
	Contribution         int     `json:"contribution" validate:"min=-100,max=100"`
	RequiresVerification bool    `json:"requiresVerification"`
	PreventionAction     *string `json:"preventionAction,omitempty" validate:"omitempty,max=500"`
}

type UpdateRuleRequest struct {
	Name                 *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description          *string `json:"description,omitempty" validate:"omitempty,max=500"`
	PayerPattern         *string `json:"payerPattern,omitempty" validate:"omitempty,min=1,max=200"`
	CPTPattern           *string `json:"cptPattern,omitempty" validate:"omitempty,min=1,max=20"`
	Contribution         *int    `json:"contribution,omitempty" validate:"omitempty,min=-100,max=100"`
	RequiresVerification *bool   `json:"requiresVerification,omitempty"`
	PreventionAction     *string `json:"preventionAction,omitempty" validate:"omitempty,max=500"`
	Active               *bool   `json:"active,omitempty"`
}

type RuleResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Description          *string   `json:"description,omitempty"`
	PayerPattern         string    `json:"payerPattern"`
	CPTPattern           string    `json:"cptPattern"`
	Contribution         int       `json:"contribution"`
	RequiresVerification bool      `json:"requiresVerification"`
	PreventionAction     *string   `json:"preventionAction,omitempty"`
	Active               bool      `json:"active"`
	TriggeredCount       int64     `json:"triggeredCount"`
	PreventedCount       int64     `json:"preventedCount"`
	ProtectedAmountCents int64     `json:"protectedAmountCents"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func FromRule(rule repository.Rule) RuleResponse {
	return RuleResponse{
		ID:                   rule.ID,
		Name:                 rule.Name,
		Description:          rule.Description,
		PayerPattern:         rule.PayerPattern,
		CPTPattern:           rule.CPTPattern,
		Contribution:         rule.Contribution,
		RequiresVerification: rule.RequiresVerification,
		PreventionAction:     rule.PreventionAction,
		Active:               rule.Active,
		TriggeredCount:       rule.TriggeredCount,
		PreventedCount:       rule.PreventedCount,
		ProtectedAmountCents: rule.ProtectedAmountCents,
		CreatedAt:            rule.CreatedAt,
		UpdatedAt:            rule.UpdatedAt,
	}
}

func FromRules(rules []repository.Rule) []RuleResponse {
	out := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, FromRule(rule))
	}
	return out
}
