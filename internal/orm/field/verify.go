package field

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrNoMailExchanger is returned when a domain resolves but publishes no MX records
var ErrNoMailExchanger = errors.New("domain has no mail exchanger")

// Verifier performs the secondary, possibly network-bound, check on the
// ASCII form of an address's domain.
type Verifier interface {
	Verify(ctx context.Context, domain string) error
}

// VerifierFunc adapts a function to the Verifier interface
type VerifierFunc func(ctx context.Context, domain string) error

// Verify implements Verifier
func (fn VerifierFunc) Verify(ctx context.Context, domain string) error {
	return fn(ctx, domain)
}

// MXVerifier checks that a domain publishes at least one MX record
type MXVerifier struct {
	// Resolver defaults to net.DefaultResolver.
	Resolver *net.Resolver
	// Timeout bounds a single lookup; zero leaves ctx as is.
	Timeout time.Duration
}

// Verify implements Verifier
func (v MXVerifier) Verify(ctx context.Context, domain string) error {
	resolver := v.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	records, err := resolver.LookupMX(ctx, domain)
	if err != nil {
		return fmt.Errorf("lookup mx %s: %w", domain, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: %s", ErrNoMailExchanger, domain)
	}
	return nil
}
