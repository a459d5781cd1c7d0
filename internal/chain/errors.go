package chain

import (
	"fmt"
	"time"
)

// SubmissionError means the node or RPC rejected the creation call (malformed
// params, insufficient funds, revert). Not retried automatically; retry is a
// user-initiated re-invocation of the whole flow.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transaction submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ReceiptTimeoutError means no receipt arrived inside the configured window.
// The transaction may still confirm later, so callers should offer a manual
// retry/poll instead of treating this as a permanent failure.
type ReceiptTimeoutError struct {
	TxHash string
	Waited time.Duration
}

func (e *ReceiptTimeoutError) Error() string {
	return fmt.Sprintf("no receipt for %s after %s; transaction may still confirm", e.TxHash, e.Waited)
}
