package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/contracthub/engine/internal/models"
)

// delayPattern extracts a day count from free text ("delayed 2 days", "3 day
// extension"). Absence yields zero.
var delayPattern = regexp.MustCompile(`(?i)(\d+)\s*day`)

// criticalKeywords is a coarse textual proxy for critical-path exposure. A
// better design would cross-reference named activities against the activity
// graph's critical flags; see DESIGN.md.
var criticalKeywords = []string{
	"critical",
	"foundation",
	"structural",
	"milestone",
	"key date",
	"completion",
	"piling",
}

// defaultClauseRates maps NEC4 clause-family prefixes to a per-day cost rate
// in contract currency units. Used when the project's policy carries no rate
// table of its own.
var defaultClauseRates = map[string]int64{
	"60.1": 2000,
	"61.3": 1500,
	"62":   1800,
	"63":   2500,
	"65":   2200,
}

const defaultDayRate = 1000

// analyzerConfidence is a fixed constant: the analyzer does not yet grade the
// quality of its own extraction.
const analyzerConfidence = 0.75

// ImpactAnalyzer derives a quantified impact from a free-text change
// description and its clause reference.
type ImpactAnalyzer interface {
	Analyze(description string, changeType models.ChangeType, clauseReference string) models.Impact
	AnalyzeWithRates(description string, changeType models.ChangeType, clauseReference string, rates map[string]int64) models.Impact
}

type impactAnalyzer struct {
	rates map[string]int64
}

// NewImpactAnalyzer creates an analyzer using the given clause rate table, or
// the built-in defaults when nil.
func NewImpactAnalyzer(rates map[string]int64) ImpactAnalyzer {
	if rates == nil {
		rates = defaultClauseRates
	}
	return &impactAnalyzer{rates: rates}
}

var _ ImpactAnalyzer = (*impactAnalyzer)(nil)

func (a *impactAnalyzer) Analyze(description string, changeType models.ChangeType, clauseReference string) models.Impact {
	return a.AnalyzeWithRates(description, changeType, clauseReference, nil)
}

// AnalyzeWithRates analyzes with a per-project rate table overriding the
// analyzer's own.
func (a *impactAnalyzer) AnalyzeWithRates(description string, changeType models.ChangeType, clauseReference string, rates map[string]int64) models.Impact {
	if rates == nil {
		rates = a.rates
	}

	days := extractDelayDays(description)
	rate := clauseDayRate(clauseReference, rates)

	return models.Impact{
		DelayDays:           days,
		Cost:                int64(days) * rate,
		AffectsCriticalPath: mentionsCriticalWork(description),
		Confidence:          analyzerConfidence,
	}
}

func extractDelayDays(description string) int {
	m := delayPattern.FindStringSubmatch(description)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// clauseDayRate picks the longest clause-family prefix that matches the
// reference, so "60.1(12)" resolves through "60.1".
func clauseDayRate(clauseReference string, rates map[string]int64) int64 {
	best := ""
	var rate int64 = defaultDayRate
	for prefix, r := range rates {
		if strings.HasPrefix(clauseReference, prefix) && len(prefix) > len(best) {
			best = prefix
			rate = r
		}
	}
	return rate
}

func mentionsCriticalWork(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// buildCompliance records the contractual validity of a change event. The
// check is shallow: a clause reference must be present; deeper clause
// validation belongs to the contract layer upstream.
func buildCompliance(clauseReference string) models.Compliance {
	if strings.TrimSpace(clauseReference) == "" {
		return models.Compliance{
			IsValid: false,
			Reason:  "no clause reference supplied",
		}
	}
	return models.Compliance{
		IsValid:         true,
		ClauseReference: clauseReference,
	}
}
