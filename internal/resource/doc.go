// Package resource bounds the memory and IO that compression work may consume.
//
// A Controller carries two independent limits. Memory covers pipeline
// temporaries, which are reserved before they are allocated. AcquireMemory never
// blocks; it fails with ErrMemoryLimitExceeded so callers can shed load instead
// of queueing behind a large volume. IO is a token bucket that throttles
// container writes through AcquireIO and container reads through
// RateLimitedReader.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(n); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(n)
//
// All methods are safe for concurrent use, and a nil *Controller is valid and
// imposes no limits.
package resource
