package utils

import "errors"

var (
	errUnsupportedScheme = errors.New("scheme must be http or https")
	errMissingHost       = errors.New("missing host")
)
