// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck

import (
	"fmt"
	"strings"
)

// A Failure is a violated scenario invariant.
//
type Failure struct {
	Scenario  string `json:"scenario"`
	Condition string `json:"condition"`
	Observed  string `json:"observed"`
	Cycle     uint64 `json:"cycle"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s (observed %s at cycle %d)", f.Scenario, f.Condition, f.Observed, f.Cycle)
}

// Assert evaluates the invariants of one scenario. A violated invariant is
// recorded and evaluation goes on.
//
type Assert struct {
	scenario string
	cycle    func() uint64
	checks   int
	failures []Failure
}

// NewAssert returns an Assert for the named scenario. cycle reports the
// current cycle number, it may be nil.
//
func NewAssert(scenario string, cycle func() uint64) *Assert {
	return &Assert{scenario: scenario, cycle: cycle}
}

// Check records a failure with condition and the observed values when ok is
// false. It returns ok.
//
func (a *Assert) Check(ok bool, condition string, observed ...interface{}) bool {
	a.checks++
	if ok {
		return true
	}
	f := Failure{
		Scenario:  a.scenario,
		Condition: condition,
		Observed:  formatObserved(observed),
	}
	if a.cycle != nil {
		f.Cycle = a.cycle()
	}
	a.failures = append(a.failures, f)
	return false
}

// Checkf is like Check with a formatted condition.
//
func (a *Assert) Checkf(ok bool, observed interface{}, format string, args ...interface{}) bool {
	return a.Check(ok, fmt.Sprintf(format, args...), observed)
}

// Checks returns the number of evaluated invariants.
func (a *Assert) Checks() int { return a.checks }

// Failures returns the recorded failures.
func (a *Assert) Failures() []Failure { return a.failures }

func formatObserved(vs []interface{}) string {
	if len(vs) == 0 {
		return "-"
	}
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = fmt.Sprint(v)
	}
	return strings.Join(s, ", ")
}
