package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"tagged", New(NotFound, "dish not found"), NotFound},
		{"wrapped", fmt.Errorf("load: %w", New(Forbidden, "nope")), Forbidden},
		{"plain", errors.New("disk on fire"), Internal},
		{"internal wrap", Wrap(errors.New("boom"), "failed"), Internal},
		{"nil", nil, None},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("%s: KindOf = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{Unauthorized, http.StatusUnauthorized},
		{NotFound, http.StatusNotFound},
		{Forbidden, http.StatusForbidden},
		{Validation, http.StatusBadRequest},
		{Conflict, http.StatusConflict},
		{AlreadyMember, http.StatusBadRequest},
		{CannotRemoveOwner, http.StatusBadRequest},
		{Unavailable, http.StatusServiceUnavailable},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%v.Status() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("constraint failed")
	err := Wrap(cause, "failed to save")
	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to match cause")
	}
	if !Is(err, Internal) {
		t.Error("expected Internal kind")
	}
}

func TestPropagate(t *testing.T) {
	tagged := New(Forbidden, "nope")
	if got := Propagate(tagged, "ignored"); got != error(tagged) {
		t.Errorf("Propagate changed a tagged error: %v", got)
	}
	if got := Propagate(errors.New("boom"), "failed"); KindOf(got) != Internal {
		t.Errorf("KindOf = %v, want Internal", KindOf(got))
	}
	if Propagate(nil, "x") != nil {
		t.Error("Propagate(nil) should be nil")
	}
}
