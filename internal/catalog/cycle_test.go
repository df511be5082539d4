package catalog

import (
	"testing"

	"github.com/form270/declare/internal/domain"
)

func calcRule(target string, refs ...string) domain.Rule {
	f := domain.Formula{Op: domain.FOpSum}
	for _, r := range refs {
		f.Args = append(f.Args, domain.Formula{Ref: r})
	}
	return domain.Rule{
		Kind:    domain.RuleCalculation,
		Actions: []domain.Action{{Kind: domain.ActionCalc, Target: target, Formula: f}},
	}
}

func TestFindCalcCycle_Acyclic(t *testing.T) {
	rules := []domain.Rule{
		calcRule("LF_B", "LF_A"),
		calcRule("LF_C", "LF_A", "LF_B"),
	}
	if cyc := findCalcCycle(rules); cyc != "" {
		t.Errorf("expected no cycle, got %s", cyc)
	}
}

func TestFindCalcCycle_DetectsCycle(t *testing.T) {
	rules := []domain.Rule{
		calcRule("LF_A", "LF_B"),
		calcRule("LF_B", "LF_C"),
		calcRule("LF_C", "LF_A"),
	}
	if cyc := findCalcCycle(rules); cyc == "" {
		t.Errorf("expected a cycle to be detected")
	}
}

func TestFindCalcCycle_SelfReference(t *testing.T) {
	rules := []domain.Rule{calcRule("LF_A", "LF_A")}
	if cyc := findCalcCycle(rules); cyc == "" {
		t.Errorf("expected self-reference to be flagged as a cycle")
	}
}
