package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestTaxonomyStatusCodes(t *testing.T) {
	cases := []struct {
		err    *ServiceError
		code   ErrorCode
		status int
	}{
		{NotFound("missing"), CodeNotFound, http.StatusNotFound},
		{Conflict("duplicate"), CodeConflict, http.StatusConflict},
		{ValidationFailed("bad input"), CodeValidationFailed, http.StatusBadRequest},
		{Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{InvalidToken(nil), CodeUnauthorized, http.StatusUnauthorized},
		{Forbidden("nope"), CodeForbidden, http.StatusForbidden},
		{Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Fatalf("expected code %s, got %s", tc.code, tc.err.Code)
		}
		if tc.err.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, tc.err.HTTPStatus)
		}
	}
}

func TestWithDetails(t *testing.T) {
	err := NotFound("Stock with id 7 not found").WithDetails("entity", "stock").WithDetails("stockId", int64(7))
	if err.Details["entity"] != "stock" {
		t.Fatalf("expected entity detail, got %v", err.Details)
	}
	if err.Details["stockId"] != int64(7) {
		t.Fatalf("expected stockId detail, got %v", err.Details)
	}
}

func TestGetServiceErrorUnwrapsChain(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("handling request: %w", Internal("storage failure", cause))

	se := GetServiceError(err)
	if se == nil {
		t.Fatalf("expected service error in chain")
	}
	if se.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", se.Code)
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected cause to remain reachable")
	}
}

func TestKindPredicates(t *testing.T) {
	if !IsNotFound(NotFound("x")) || IsNotFound(Conflict("x")) {
		t.Fatalf("IsNotFound misclassified")
	}
	if !IsConflict(Conflict("x")) || IsConflict(stderrors.New("plain")) {
		t.Fatalf("IsConflict misclassified")
	}
}
