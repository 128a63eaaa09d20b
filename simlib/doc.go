// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simlib provides a library of reusable parts for the sim kernel:
// function backed inputs and output probes used to drive and observe a
// circuit, and a behavioral model of the neuromorphic core.
//
// NeuroCore is not a model of the real circuit. It exists only to exercise
// the verification harness end to end: any part honoring the same pins can
// replace it as the circuit under test.
//
package simlib

// common pin names
const (
	pIn  = "in"
	pOut = "out"
)
