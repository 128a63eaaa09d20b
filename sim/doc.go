/*
Package sim provides the cycle simulation kernel hosting a circuit under test.

A circuit is a flat list of parts whose pins are connected to named wires. Each
part mounts into a socket and returns the components updating its outputs; the
kernel steps all components in parallel worker goroutines, with double
buffered wire states, and generates the clock signal.

Clocked parts latch their inputs when Circuit.AtTick reports a rising edge.
Since every wire takes one step to propagate, a value produced by a
function-backed input at the very beginning of a cycle is only seen by clocked
parts at the next rising edge.

*/
package sim
