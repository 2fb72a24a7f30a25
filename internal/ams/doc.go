// Package ams models multi-material filament-feeding hardware (Happy Hare,
// AFC Box Turtle, ValgACE, physical tool changers) behind one Backend
// contract, and drives asynchronous load/unload/tool-change operations
// through a per-backend state machine that observers render as filament
// moving through physical path segments.
//
// The simulation backend (NewSim) is the executable reference for the state
// machine; the vendor adapters reproduce its semantics but source completion
// from real status updates delivered through the StatusSink instead of a
// timer. All shared state serializes through one mutex per backend, and
// events are always emitted with that mutex released.
package ams
