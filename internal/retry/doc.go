// Package retry runs model backend calls with bounded exponential backoff.
//
// Only errors classified as transient (services.ErrTransient, services.ErrTimeout,
// HTTP 408/429/5xx, network timeouts) are retried. Context cancellation always
// stops the loop immediately. HTTP helpers in this package turn response status
// codes into classified errors so every client shares one policy.
package retry
