// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migrate

// Summary aggregates migration outcomes into counts.
type Summary struct {
	Succeeded int
	Failed    int
}

// Summarize reduces outcomes to success and failure counts. An item
// succeeded when its content fetch returned 200 and the publisher
// exited 0; everything else counts as a failure. A non-zero failure
// count is reported, never raised.
func Summarize(outcomes []Outcome) Summary {
	var summary Summary
	for _, outcome := range outcomes {
		if outcome.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// Failures returns the outcomes that did not succeed, in order.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, outcome := range outcomes {
		if !outcome.Succeeded() {
			failed = append(failed, outcome)
		}
	}
	return failed
}
