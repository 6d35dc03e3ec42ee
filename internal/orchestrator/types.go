package orchestrator

import (
	"errors"

	"sitegen/internal/ai"
	"sitegen/internal/design"
	"sitegen/internal/tree"
)

var (
	// ErrNoProviders is returned when no provider is registered with a usable credential
	ErrNoProviders = errors.New("no AI providers configured")
	// ErrEmptyPrompt is returned for a request without a prompt
	ErrEmptyPrompt = errors.New("prompt is required")
	// ErrInvalidVariant is returned for a negative or out-of-range variant index
	ErrInvalidVariant = errors.New("variant index out of range")
)

// FailureKind is the typed reason a unit did not produce a tree
type FailureKind string

const (
	FailureAuth          FailureKind = "AUTH"
	FailureRateLimit     FailureKind = "RATE_LIMIT"
	FailureTruncated     FailureKind = "TRUNCATED"
	FailureParse         FailureKind = "PARSE_FAILURE"
	FailurePlanMismatch  FailureKind = "PLAN_MISMATCH"
	FailureRequiredPhase FailureKind = "REQUIRED_PHASE_FAILURE"
	FailureProvider      FailureKind = "PROVIDER_FAILURE"
)

func kindOf(o ai.Outcome) FailureKind {
	switch o {
	case ai.OutcomeAuth:
		return FailureAuth
	case ai.OutcomeRateLimit:
		return FailureRateLimit
	case ai.OutcomeTruncated:
		return FailureTruncated
	}
	return FailureProvider
}

// Failure is a structured error reason
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	// Attempts lists every candidate tried as provider=OUTCOME
	Attempts []string `json:"attempts,omitempty"`
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// Request is one generation request. VariantIndex selects single-variant mode.
type Request struct {
	Prompt       string              `json:"prompt" binding:"required"`
	SectionType  string              `json:"sectionType,omitempty"`
	VariantIndex *int                `json:"variantIndex,omitempty"`
	VariantCount int                 `json:"variantCount,omitempty"`
	Provider     string              `json:"provider,omitempty"`
	Model        string              `json:"model,omitempty"`
	Brand        string              `json:"brand,omitempty"`
	Seed         int64               `json:"seed,omitempty"`
	Intent       *design.Intent      `json:"intent,omitempty"`
	Tokens       *design.Tokens      `json:"tokens,omitempty"`
	Images       map[string][]string `json:"images,omitempty"`
	LockedTokens *design.Tokens      `json:"lockedTokens,omitempty"`
	SectionPlan  []string            `json:"sectionPlan,omitempty"`
	UsedLayouts  []string            `json:"usedLayouts,omitempty"`
}

// SectionResult is one generated section tree
type SectionResult struct {
	SectionType string      `json:"sectionType"`
	Component   *tree.Node  `json:"component"`
	Provider    ai.Provider `json:"provider,omitempty"`
	Model       string      `json:"model,omitempty"`
}

// Variant is one alternative design produced in variant mode
type Variant struct {
	VariantID    string          `json:"variantId"`
	Index        int             `json:"index"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Layout       string          `json:"layout"`
	Sections     []SectionResult `json:"sections"`
	ProviderUsed ai.Provider     `json:"providerUsed,omitempty"`
	Model        string          `json:"model,omitempty"`
	Partial      bool            `json:"partial"`
	Retried      bool            `json:"retried"`
	Error        *Failure        `json:"error,omitempty"`
}

// Response carries the generated trees plus everything a caller may resupply
// on a follow-up request of the same project.
type Response struct {
	Success      bool                `json:"success"`
	RequestID    string              `json:"requestId"`
	Sections     []SectionResult     `json:"sections,omitempty"`
	FailedPhases []string            `json:"failedPhases,omitempty"`
	Warning      string              `json:"warning,omitempty"`
	Variants     []Variant           `json:"variants,omitempty"`
	Error        *Failure            `json:"error,omitempty"`
	Intent       *design.Intent      `json:"intent,omitempty"`
	Tokens       *design.Tokens      `json:"tokens,omitempty"`
	Images       map[string][]string `json:"images,omitempty"`
	SectionPlan  []string            `json:"sectionPlan"`
	UsedLayouts  []string            `json:"usedLayouts,omitempty"`
}
