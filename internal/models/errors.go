package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error classes. Every error returned by the data pipeline wraps exactly one.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")
)

var (
	ErrMalformedPath       = fmt.Errorf("%w: malformed data path", ErrBadRequest)
	ErrUnknownSection      = fmt.Errorf("%w: unknown section", ErrBadRequest)
	ErrManifestKeyNotFound = fmt.Errorf("%w: no manifest entry", ErrNotFound)
	ErrFileNotFound        = fmt.Errorf("%w: data file not found", ErrNotFound)
	ErrCityNotFound        = fmt.Errorf("%w: city not found", ErrNotFound)
	ErrNoYearData          = fmt.Errorf("%w: no usable yearly data", ErrNotFound)
	ErrDecode              = fmt.Errorf("%w: invalid JSON document", ErrInternal)
	ErrManifestInvalid     = fmt.Errorf("%w: invalid manifest document", ErrInternal)
	ErrRootNotFound        = fmt.Errorf("%w: root path not in document", ErrInternal)
)

// HTTPStatus returns the status code for an error produced by the pipeline.
// Unclassified errors are internal.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
