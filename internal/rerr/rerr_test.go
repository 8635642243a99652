package rerr

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Wrap(PathInaccessible, "read overlay", os.ErrPermission)
	wrapped := fmt.Errorf("migrate: %w", base)

	if !Is(wrapped, PathInaccessible) {
		t.Fatalf("expected PathInaccessible, got %q", KindOf(wrapped))
	}
	if !errors.Is(wrapped, os.ErrPermission) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if Is(nil, PathInaccessible) {
		t.Fatalf("nil error must not match a kind")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{New(ValidationFailed, "bad name"), 2},
		{New(NotMigrated, "run migrate"), 3},
		{New(ConfigCorrupt, "bad json"), 1},
		{New(Canceled, "stopped"), 130},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWithDetailsCopiesMap(t *testing.T) {
	details := map[string]string{"field": "name"}
	err := WithDetails(ValidationFailed, "invalid", details)
	details["field"] = "mutated"

	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *Error")
	}
	if re.Details["field"] != "name" {
		t.Fatalf("details were not copied: %v", re.Details)
	}
}
