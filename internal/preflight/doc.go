// Package preflight provides readiness checks for the binaries, model
// servers, resources, and filesystem paths that dualsub depends on.
//
// These checks run in two contexts:
//   - "dualsub generate" calls RunAll before processing the first video and
//     refuses to start when a required check fails, so a long extraction is
//     never wasted on a run that cannot finish.
//   - "dualsub status" renders every result, passed or not.
//
// Checks for the engine or backend that is not selected are skipped.
package preflight
