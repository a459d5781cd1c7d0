package ipfs

import "fmt"

// StorageAuthError means the pinning credentials were rejected or carry no
// usable scopes. Pinning is refused before any document is uploaded.
type StorageAuthError struct {
	Reason string
	Err    error
}

func (e *StorageAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pinning credentials rejected: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("pinning credentials rejected: %s", e.Reason)
}

func (e *StorageAuthError) Unwrap() error {
	return e.Err
}

// StorageWriteError means the pin attempt itself failed after credentials
// checked out, or the document was rejected before upload.
type StorageWriteError struct {
	Diagnostic string
	Err        error
}

func (e *StorageWriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to pin document: %s: %v", e.Diagnostic, e.Err)
	}
	return fmt.Sprintf("failed to pin document: %s", e.Diagnostic)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}
