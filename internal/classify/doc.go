// Package classify turns Gmail message summaries into classifications.
//
// For every message a fixed prompt is rendered from the subject and sender.
// The prompt doubles as the cache key: a cached classification is reused,
// otherwise the model is asked and its reply is normalized into a
// Classification before being cached. Replies that are not a JSON object with
// a Category fall back to Uncategorized. Results are tallied per category.
//
// Failures are isolated per message: an unreachable cache only costs the
// caching benefit, and a failed model call yields the fallback for that
// message while the batch carries on.
package classify
