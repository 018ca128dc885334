package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	ErrDNS              = errors.New("could not resolve feed host")
	ErrConnectionReset  = errors.New("connection to feed server was reset")
	ErrConnection       = errors.New("could not connect to feed server")
	ErrTimeout          = errors.New("feed request timed out")
	ErrHTTPStatus       = errors.New("feed server returned an error status")
	ErrTooLarge         = errors.New("feed exceeds the maximum allowed size")
	ErrInvalidStructure = errors.New("feed is not a valid RSS document")
)

// HTTPStatusError reports a non-2xx response from a feed server.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("feed server returned HTTP %s", e.Status)
}

func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// classifyRequestError maps transport failures onto the feed error taxonomy.
func classifyRequestError(err error) error {
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.As(err, &dnsErr) && !dnsErr.IsTimeout:
		return fmt.Errorf("%w: %w", ErrDNS, err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, syscall.ECONNRESET):
		return fmt.Errorf("%w: %w", ErrConnectionReset, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
}
