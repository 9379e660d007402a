package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrEndOfPages         = fmt.Errorf("no more pages")

	// Upload errors
	ErrAlreadyExists    = fmt.Errorf("entry already exists")
	ErrRemoteWrite      = fmt.Errorf("remote write failed")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrAssetProcessing  = fmt.Errorf("asset processing did not finish")
	ErrInvalidReference = fmt.Errorf("invalid reference")
	ErrDuplicateItem    = fmt.Errorf("duplicate work item")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
