package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/hyperpool/api/apicontainersv1"
	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/service"
)

var ErrUnavailable = errors.New("temporary unavailable")

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

func InterceptorUnavailable(r *registry.Registry) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := r.GetStatus()
			if status != registry.StatusOperating {
				box.SetError(ctx, fmt.Errorf("%w: %s", ErrUnavailable, status))
				return
			}
			next(ctx)
		}
	}
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)
		r := box.GetRequest(ctx)

		status, description := describeError(err, r)
		w.WriteHeader(status)
		PrettyError{
			Message:     err.Error(),
			Description: description,
		}.MarshalTo(w)
	}
}

func describeError(err error, r *http.Request) (int, string) {

	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable, "registry is shutting down"
	}

	if errors.Is(err, service.ErrorContainerNotFound) {
		return http.StatusNotFound, "no container is registered with that type name"
	}

	if errors.Is(err, service.ErrorObjectNotFound) {
		return http.StatusNotFound, "object is not alive"
	}

	if errors.Is(err, apicontainersv1.ErrInvalidIndex) {
		return http.StatusBadRequest, "index must be a positive 32 bit integer"
	}

	if err == box.ErrResourceNotFound {
		return http.StatusNotFound, fmt.Sprintf("resource '%s' not found", r.URL.String())
	}

	if err == box.ErrMethodNotAllowed {
		return http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", r.Method)
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return http.StatusBadRequest, "Malformed JSON"
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		return http.StatusBadRequest, "Malformed JSON"
	}

	return http.StatusInternalServerError, "Unexpected error"
}
