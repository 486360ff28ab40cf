// Package tasks implements the upload controller that pushes a parsed export
// batch to a remote music service.
//
// The core abstraction is [UploadEngine], which walks a batch sequentially,
// creates one remote playlist per parsed playlist, resolves tracks via search
// and appends them in order. Remote calls run through a bounded retry loop
// that honors Retry-After on rate-limit responses; the wait is the only
// suspension point in a run. Operations emit progress updates via channels for
// non-blocking status reporting to the CLI layer.
//
// Failures are contained at the smallest meaningful scope: an unresolved track
// is recorded inside its playlist's result, a failed playlist never aborts the
// batch, and only the stop-on-429 option ends a run early.
package tasks
