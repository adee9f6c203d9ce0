package transport

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput = "TRANSPORT_BAD_INPUT"
	ErrorExternal = "TRANSPORT_EXTERNAL_FAILURE"
	ErrorInternal = "TRANSPORT_INTERNAL_ERROR"
)

// sendFailure builds the error returned by Send. source may be nil. Callers
// in core only look at the text code and wrap it as a network failure.
func sendFailure(source error, category goerrors.Category, message string, metadata map[string]any) error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, category)
	} else {
		err = goerrors.Wrap(source, category, message)
	}
	textCode, code := ErrorInternal, http.StatusInternalServerError
	switch category {
	case goerrors.CategoryBadInput:
		textCode, code = ErrorBadInput, http.StatusBadRequest
	case goerrors.CategoryExternal:
		textCode, code = ErrorExternal, http.StatusBadGateway
	}
	err = err.WithCode(code).WithTextCode(textCode)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}
