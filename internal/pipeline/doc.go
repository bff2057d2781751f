// Package pipeline turns one video into a pair of SubRip documents.
//
// A run moves through six stages in a fixed order: extract, segment,
// transcribe, translate, assemble and write. Each stage either completes or
// aborts the run with a *StageError naming the stage and the failure kind.
// Nothing is written until both documents are rendered, and the final write
// publishes both files or neither.
//
// The Orchestrator owns no model state of its own. Recognizers and
// translation backends come from models caches supplied by the caller so
// that several runs (for example "dualsub generate --jobs 2") share loaded
// handles, and accelerator-bound calls serialize on a shared accel.Lock.
package pipeline
