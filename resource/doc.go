// Package resource enforces process-wide limits for pools: a budget for
// mapped bytes, a bound on concurrent workers and rate limits for
// allocation traffic and snapshot IO.
//
// A nil *Controller imposes no limits.
package resource
