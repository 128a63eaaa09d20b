// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nmcheck

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Result is the outcome of one scenario run.
//
type Result struct {
	Scenario string        `json:"scenario"`
	Checks   int           `json:"checks"`
	Samples  int           `json:"samples"`
	Cycles   uint64        `json:"cycles"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Failures []Failure     `json:"failures,omitempty"`
	// Aborted is set when the run was stopped by a driver usage error or
	// cancellation.
	Aborted string `json:"aborted,omitempty"`
}

// Passed reports whether the scenario ran to completion without failures.
//
func (r *Result) Passed() bool {
	return r.Aborted == "" && len(r.Failures) == 0
}

func (r *Result) status() string {
	switch {
	case r.Aborted != "":
		return "ABORT"
	case len(r.Failures) > 0:
		return "FAIL"
	}
	return "PASS"
}

// Report aggregates scenario results.
//
type Report struct {
	Params  Params   `json:"params"`
	Results []Result `json:"results"`
}

// OK reports whether all scenarios passed.
//
func (r *Report) OK() bool {
	for i := range r.Results {
		if !r.Results[i].Passed() {
			return false
		}
	}
	return true
}

// Failed returns the names of the scenarios that did not pass.
//
func (r *Report) Failed() []string {
	var names []string
	for i := range r.Results {
		if !r.Results[i].Passed() {
			names = append(names, r.Results[i].Scenario)
		}
	}
	return names
}

// WriteText writes a human readable summary: one line per scenario followed
// by every recorded failure.
//
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tRESULT\tCHECKS\tSAMPLES\tCYCLES\tELAPSED")
	for i := range r.Results {
		res := &r.Results[i]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%v\n", res.Scenario, res.status(), res.Checks, res.Samples, res.Cycles, res.Elapsed.Round(time.Microsecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for i := range r.Results {
		res := &r.Results[i]
		if res.Aborted != "" {
			fmt.Fprintf(w, "\n%s: aborted: %s", res.Scenario, res.Aborted)
		}
		for _, f := range res.Failures {
			fmt.Fprintf(w, "\n%s", f)
		}
	}
	passed := len(r.Results) - len(r.Failed())
	_, err := fmt.Fprintf(w, "\n%d/%d scenarios passed\n", passed, len(r.Results))
	return err
}

// WriteJSON writes the report as indented JSON.
//
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
