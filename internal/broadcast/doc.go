// Package broadcast implements the admin fan-out workflow: a per-admin
// session that collects one payload message, and an executor that replicates
// it to every registered subscriber.
//
// Fan-out is strictly sequential with a token-bucket pace between sends.
// The pace respects Telegram's outbound rate limits; it is not a correctness
// mechanism. Per-recipient faults are counted and never abort the run.
package broadcast
