package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantGRPC   codes.Code
	}{
		{"bad request", BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{"conflict", Conflict("busy"), http.StatusConflict, codes.FailedPrecondition},
		{"not found", NotFound("missing"), http.StatusNotFound, codes.NotFound},
		{"internal", Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.StatusCode(); got != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", got, tt.wantStatus)
			}
			if got := tt.err.GRPCCode(); got != tt.wantGRPC {
				t.Errorf("GRPCCode() = %v, want %v", got, tt.wantGRPC)
			}
		})
	}
}

func TestUnwrapAndFrom(t *testing.T) {
	cause := errors.New("db down")
	appErr := Internal("query failed", WithCause(cause))

	if !errors.Is(appErr, cause) {
		t.Error("expected errors.Is to reach the cause")
	}

	wrapped := fmt.Errorf("outer: %w", appErr)
	if got := From(wrapped); got.Kind() != KindInternal || got.Message() != "query failed" {
		t.Errorf("From(wrapped) = %v/%q", got.Kind(), got.Message())
	}

	if got := From(cause); got.Kind() != KindInternal {
		t.Errorf("From(plain) kind = %v, want internal", got.Kind())
	}

	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Conflict("table occupied"))
	if !IsKind(err, KindConflict) {
		t.Error("IsKind should see conflict through wrapping")
	}
	if IsKind(err, KindNotFound) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(errors.New("plain"), KindInternal) {
		t.Error("IsKind should reject non-AppError values")
	}
}

func TestDetails(t *testing.T) {
	err := BadRequest("dish missing", WithDetail("dish_id", 42))
	if err.Details()["dish_id"] != 42 {
		t.Errorf("details = %v", err.Details())
	}
}
