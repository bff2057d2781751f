// Package main hosts the dualsub CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, applies per-invocation
// flag overrides, wires the pipeline to its model servers, and renders
// status, history, and cache maintenance output. The subtitle pipeline itself
// lives in internal/pipeline; commands here only assemble and report.
package main
