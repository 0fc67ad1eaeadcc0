package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/plmigrate/internal/shared"
	"google.golang.org/api/googleapi"
)

// UpstreamError is a non-2xx response (or transport failure, Status 0) from an external API.
//
// It always matches [shared.ErrAPIRequest]; a 401 also matches [shared.ErrCredentialInvalid].
type UpstreamError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("%s API error: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Service, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	if e.Status == http.StatusUnauthorized {
		errs = append(errs, shared.ErrCredentialInvalid)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsSuccess is the one success predicate used for every external call.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// fromGoogleAPI converts errors returned by the generated YouTube client.
func fromGoogleAPI(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		body := gerr.Body
		if body == "" {
			body = gerr.Message
		}
		return &UpstreamError{Service: "youtube", Status: gerr.Code, Body: body}
	}
	return &UpstreamError{Service: "youtube", Err: err}
}
