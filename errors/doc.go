/*
Package errors provides the error taxonomy of the metadata storage layer.

The package defines the failure modes providers and adapters report, each with a
sentinel that can be checked with the standard errors.Is() function or the provided
helper functions.

Common Errors:

	var (
	    ErrNotFound       = errors.New("entity not found")
	    ErrAlreadyExists  = errors.New("entity already exists")
	    ErrAmbiguous      = errors.New("ambiguous entity lookup")
	    ErrInvalidInput   = errors.New("invalid input")
	    ErrConfiguration  = errors.New("metadata configuration error")
	    ErrBackend        = errors.New("metadata backend error")
	    ErrDataIntegrity  = errors.New("metadata data integrity error")
	)

NotFound is an expected outcome of a point lookup. Ambiguous means a lookup emulated
through a fixed query matched more than one record. Configuration errors are fatal and
should surface at startup validation. Backend errors wrap the storage client's error
with the entity type, operation and backend.

Usage:

	repo, err := provider.Get(ctx, "123")
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("repository %s does not exist", "123")
	    }
	    return nil, err
	}

	status := errors.StatusCode(err) // 404, 409, 400 or 500
*/
package errors
