// Package logging assembles the slog loggers used by dualsub.
//
// New builds a console handler (pretty or JSON) and optionally tees every
// record as JSON into a log file. Context helpers tag lines with the run ID,
// pipeline stage, and backend correlation ID stored by package services, and
// WarnWithContext keeps warnings shaped as cause, impact, and next step.
package logging
