package scheduler

import "fmt"

// ConfigurationError reports a malformed device definition or forecast
// series. It is fatal for the invocation: nothing gets scheduled.
type ConfigurationError struct {
	// Subject identifies the offending input, either a device id or
	// "forecast".
	Subject string
	Detail  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Subject, e.Detail)
}

func configErr(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Detail: fmt.Sprintf(format, args...)}
}
