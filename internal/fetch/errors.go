package fetch

import (
	"errors"
	"fmt"
)

const genericFetchMessage = "Check console for details"

// ConfigurationError reports a missing required configuration field. No
// request is issued when it is returned.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "Configuration Error: " + e.Message
}

// FetchError wraps any failure of the record source.
type FetchError struct {
	Collection string
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "Error fetching data: " + e.Message
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newFetchError(collection string, err error) *FetchError {
	message := genericFetchMessage
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return &FetchError{Collection: collection, Message: message, Err: err}
}

// DisplayMessage returns the banner text for a fetch-stage error.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Error()
	}
	return fmt.Sprintf("Error fetching data: %s", genericFetchMessage)
}
