package mint

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCoinCreated means the creation transaction confirmed but its receipt
// carried no coin creation event. The mint must not be treated as successful.
var ErrNoCoinCreated = errors.New("transaction confirmed but no coin creation event found")

// InvalidMetadataError means the metadata document failed schema validation.
// This is a caller bug: surfaced immediately with the validator's diagnostics,
// never retried.
type InvalidMetadataError struct {
	Diagnostics []string
}

func (e *InvalidMetadataError) Error() string {
	return fmt.Sprintf("invalid coin metadata: %s", strings.Join(e.Diagnostics, "; "))
}

// InvalidPayoutAddressError means the payout recipient is not a well-formed
// chain address.
type InvalidPayoutAddressError struct {
	Address string
}

func (e *InvalidPayoutAddressError) Error() string {
	return fmt.Sprintf("invalid payout address: %q", e.Address)
}

// InvalidCoinAddressError means a caller-supplied coin address is not a
// well-formed chain address. Only the client-signed link path sees this.
type InvalidCoinAddressError struct {
	Address string
}

func (e *InvalidCoinAddressError) Error() string {
	return fmt.Sprintf("invalid coin address: %q", e.Address)
}
