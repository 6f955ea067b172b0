package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCode(t *testing.T) {
	wrapped := fmt.Errorf("enroll: %w", NotFound("invalid_enroll_code", errors.New("no course")))
	status, code := StatusAndCode(wrapped, "internal")
	if status != http.StatusNotFound || code != "invalid_enroll_code" {
		t.Fatalf("got %d %q", status, code)
	}

	status, code = StatusAndCode(errors.New("boom"), "internal")
	if status != http.StatusInternalServerError || code != "internal" {
		t.Fatalf("fallback got %d %q", status, code)
	}

	if got := New(http.StatusTeapot, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("Error(): %q", got)
	}
}
