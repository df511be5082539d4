// Package workflow is the Workflow Controller of §4.H: the declaration
// lifecycle state machine, its allowed-transition graph, and the gates a
// transition must pass before it is applied.
package workflow

import (
	"context"
	"fmt"

	"github.com/form270/declare/internal/declerr"
	"github.com/form270/declare/internal/declstore"
	"github.com/form270/declare/internal/domain"
)

// allowedTransitions is the fixed graph of §4.H. A transition not listed
// here is rejected as a conflict regardless of gates.
var allowedTransitions = map[domain.Status][]domain.Status{
	domain.StatusDraft:           {domain.StatusValidated},
	domain.StatusValidated:       {domain.StatusDraft, domain.StatusAwaitingConsent},
	domain.StatusAwaitingConsent: {domain.StatusValidated, domain.StatusSigned},
	domain.StatusSigned:          {domain.StatusSubmitted},
	domain.StatusSubmitted:       {domain.StatusAccepted, domain.StatusRejected},
	domain.StatusRejected:        {domain.StatusDraft},
	domain.StatusAccepted:        {},
}

// requiredFieldsForValidation are the logical fields that must be present
// (in addition to at least one item) for draft -> validated to pass (§4.H).
var requiredFieldsForValidation = []string{
	domain.LFIncomeTotal, domain.LFTaxableIncome, domain.LFIPNCalculated,
}

// Controller drives declaration transitions against the Declaration Store.
type Controller struct {
	declarations *declstore.Store
}

// New builds a Controller over a Declaration Store.
func New(declarations *declstore.Store) *Controller {
	return &Controller{declarations: declarations}
}

// violations accumulates a business validation report the way
// speedata-einvoice's check.go accumulates BRCOxx rule violations: append,
// never abort, and let the caller decide pass/fail from the final count.
type violations struct {
	items []string
}

func (v *violations) add(code, msg string) {
	v.items = append(v.items, fmt.Sprintf("%s: %s", code, msg))
}

func (v *violations) report() map[string]any {
	return map[string]any{"violations": v.items, "valid": len(v.items) == 0}
}

// Transition moves a declaration from its current status to `to`, applying
// the gate for that edge. It is the only path that moves a declaration
// forward along the graph; GuardRegenerate and GuardMutate also write
// status, but only to drop a validated declaration back to draft.
func (c *Controller) Transition(ctx context.Context, declarationID string, to domain.Status) (domain.Declaration, error) {
	decl, err := c.declarations.Get(ctx, declarationID)
	if err != nil {
		return domain.Declaration{}, err
	}

	if !isAllowed(decl.Status, to) {
		return domain.Declaration{}, declerr.Conflict("workflow.Transition", fmt.Sprintf("transition %s -> %s is not allowed", decl.Status, to))
	}

	if decl.Status == domain.StatusDraft && to == domain.StatusValidated {
		return c.transitionToValidated(ctx, decl)
	}

	if err := c.declarations.SetStatus(ctx, declarationID, to); err != nil {
		return domain.Declaration{}, err
	}
	decl.Status = to
	return decl, nil
}

func isAllowed(from, to domain.Status) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// transitionToValidated is the one gated edge of §4.H: it requires at least
// one item plus the three closed-set fields, writes a business validation
// report either way, and only flips status on success.
func (c *Controller) transitionToValidated(ctx context.Context, decl domain.Declaration) (domain.Declaration, error) {
	items, err := c.declarations.Items(ctx, decl.ID)
	if err != nil {
		return domain.Declaration{}, err
	}

	v := &violations{}
	if len(items) == 0 {
		v.add("NO_ITEMS", "declaration has no items")
	}
	present := map[string]bool{}
	for _, it := range items {
		present[it.LogicalField] = true
	}
	for _, field := range requiredFieldsForValidation {
		if !present[field] {
			v.add("MISSING_FIELD", fmt.Sprintf("required field %s is absent", field))
		}
	}

	isValid := len(v.items) == 0
	if _, err := c.declarations.PutValidationReport(ctx, decl.ID, domain.ReportBusiness, isValid, v.report()); err != nil {
		return domain.Declaration{}, err
	}

	if !isValid {
		return domain.Declaration{}, declerr.Unprocessable("workflow.transitionToValidated", fmt.Sprintf("business validation failed: %v", v.items))
	}

	if err := c.declarations.MarkValidated(ctx, decl.ID); err != nil {
		return domain.Declaration{}, err
	}
	decl.Status = domain.StatusValidated
	return decl, nil
}

// GuardRegenerate reports whether regeneration may proceed for the
// declaration's current status, and if it is `validated`, drops it to
// `draft` first (§4.H "Regeneration is only permitted in {draft,
// validated}... drops back to draft").
func (c *Controller) GuardRegenerate(ctx context.Context, declarationID string) error {
	decl, err := c.declarations.Get(ctx, declarationID)
	if err != nil {
		return err
	}
	switch decl.Status {
	case domain.StatusDraft:
		return nil
	case domain.StatusValidated:
		return c.declarations.SetStatus(ctx, declarationID, domain.StatusDraft)
	default:
		return declerr.Conflict("workflow.GuardRegenerate", fmt.Sprintf("regeneration is not permitted while status is %s", decl.Status))
	}
}

// GuardMutate reports whether a header or item update may proceed. It
// rejects submitted/accepted declarations outright, and drops a validated
// declaration to draft before permitting the edit (§4.H).
func (c *Controller) GuardMutate(ctx context.Context, declarationID string) error {
	decl, err := c.declarations.Get(ctx, declarationID)
	if err != nil {
		return err
	}
	switch decl.Status {
	case domain.StatusSubmitted, domain.StatusAccepted:
		return declerr.Conflict("workflow.GuardMutate", fmt.Sprintf("declaration is immutable in status %s", decl.Status))
	case domain.StatusValidated:
		return c.declarations.SetStatus(ctx, declarationID, domain.StatusDraft)
	default:
		return nil
	}
}
