// Package dedupe remembers recently claimed idempotency keys so a retried
// request inside a configurable window is recognized as a duplicate instead
// of running its prompt a second time.
package dedupe
