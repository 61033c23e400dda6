// Package http exposes the cohort dashboard over a chi router.
//
// Every dashboard endpoint accepts the repeatable filter parameters
// accelerator, state, sector and trl_bucket. Successful responses carry an
// ETag tied to the loaded dataset, and errors are RFC 7807 problem
// documents produced by internal/errors.
package http
