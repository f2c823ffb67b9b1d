// Package tracing provides hooks that observe a running sim.Environment.
//
// The hooks only read what the environment passes in the hook context, so
// attaching them never changes the order or timing of events.
package tracing
