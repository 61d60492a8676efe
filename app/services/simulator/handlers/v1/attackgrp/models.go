package attackgrp

import (
	"time"

	"github.com/ardanlabs/doublespend/business/core/attack"
)

// scenarioSummary is the list form of a recorded scenario.
type scenarioSummary struct {
	ID           string         `json:"id"`
	Kind         attack.Kind    `json:"kind"`
	Outcome      attack.Outcome `json:"outcome"`
	Reason       string         `json:"reason"`
	Rounds       int            `json:"rounds"`
	DateStarted  time.Time      `json:"date_started"`
	DateFinished time.Time      `json:"date_finished"`
}

func toSummary(s attack.Scenario) scenarioSummary {
	return scenarioSummary{
		ID:           s.ID,
		Kind:         s.Kind,
		Outcome:      s.Outcome,
		Reason:       s.Reason,
		Rounds:       s.Rounds,
		DateStarted:  s.DateStarted,
		DateFinished: s.DateFinished,
	}
}
