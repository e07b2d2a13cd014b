// Package httputil provides helpers for calls to remote services.
//
// [Retry] re-runs an operation with exponential backoff when it fails with a
// [RetryableError]. The audit client wraps transient model failures (network
// errors, 5xx responses, quota exhaustion) in a RetryableError and leaves
// permanent ones (bad key, malformed response) unwrapped:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := call(ctx)
//	    if isTransient(err) {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    return err
//	})
//
// [StatusRetryable] classifies HTTP status codes the same way for callers
// that only see a status.
package httputil
