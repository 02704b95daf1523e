package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bissquit/meetup-hub/api/openapi"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// OpenAPIValidator validates HTTP responses against an OpenAPI specification.
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
}

// NewOpenAPIValidator builds a validator for the embedded API description.
func NewOpenAPIValidator(t *testing.T) *OpenAPIValidator {
	t.Helper()

	v, err := LoadOpenAPIValidator()
	if err != nil {
		t.Fatalf("load OpenAPI validator: %v", err)
	}
	return v
}

// LoadOpenAPIValidator is NewOpenAPIValidator for TestMain.
func LoadOpenAPIValidator() (*OpenAPIValidator, error) {
	doc, err := openapi3.NewLoader().LoadFromData(openapi.Spec)
	if err != nil {
		return nil, fmt.Errorf("parse openapi.yaml: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi.yaml: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("create OpenAPI router: %w", err)
	}

	return &OpenAPIValidator{
		doc:    doc,
		router: router,
	}, nil
}

// Operational endpoints are not part of the API description.
var unvalidatedPaths = map[string]bool{
	"/healthz":          true,
	"/readyz":           true,
	"/version":          true,
	"/api/openapi.yaml": true,
}

// ValidateResponse validates an HTTP response against the OpenAPI spec.
// The request is needed to find the corresponding route.
// Note: This consumes and restores the response body.
func (v *OpenAPIValidator) ValidateResponse(t *testing.T, req *http.Request, resp *http.Response) {
	t.Helper()

	if unvalidatedPaths[req.URL.Path] {
		return
	}

	// Create a minimal request with just path for route matching.
	// The OpenAPI router expects paths relative to the server base URL.
	routeReq, err := http.NewRequest(req.Method, req.URL.Path, nil)
	if err != nil {
		t.Errorf("create route request: %v", err)
		return
	}

	route, pathParams, err := v.router.FindRoute(routeReq)
	if err != nil {
		t.Errorf("OpenAPI: no route found for %s %s: %v", req.Method, req.URL.Path, err)
		return
	}

	// Read and restore body for validation
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Errorf("read response body: %v", err)
		return
	}
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	requestValidationInput := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
	}

	responseValidationInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: requestValidationInput,
		Status:                 resp.StatusCode,
		Header:                 resp.Header,
		Body:                   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	}

	if err := openapi3filter.ValidateResponse(req.Context(), responseValidationInput); err != nil {
		t.Errorf("%s %s -> %d does not match openapi.yaml:\n%s\nbody: %s",
			req.Method, req.URL.Path, resp.StatusCode, truncate(err.Error(), 500), truncate(string(body), 200))
	}
}

// ValidateRecorded validates a response captured by httptest.ResponseRecorder.
func (v *OpenAPIValidator) ValidateRecorded(t *testing.T, req *http.Request, rec *httptest.ResponseRecorder) {
	t.Helper()
	v.ValidateResponse(t, req, rec.Result())
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
