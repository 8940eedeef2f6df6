package native

import (
	"errors"
	"testing"

	hkerrors "github.com/wippyai/handlekit/errors"
)

func TestCall(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		v, err := Call("count", func(*Status) int { return 3 })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 3 {
			t.Errorf("v = %d, want 3", v)
		}
	})

	t.Run("pending failure", func(t *testing.T) {
		v, err := Call("name", func(st *Status) string {
			st.Fail(7, "index out of range")
			return "garbage"
		})
		if v != "" {
			t.Errorf("v = %q, want zero value", v)
		}
		var e *hkerrors.Error
		if !errors.As(err, &e) {
			t.Fatalf("expected *errors.Error, got %T", err)
		}
		if e.Op != "name" || e.Code != 7 || e.Kind != hkerrors.KindNativeFailure {
			t.Errorf("unexpected error %+v", e)
		}
	})
}

func TestDo(t *testing.T) {
	if err := Do("noop", func(*Status) {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Do("fail", func(st *Status) { st.Fail(-1, "x") }); err == nil {
		t.Fatal("expected error")
	}
}

func TestStatus_ErrClears(t *testing.T) {
	var st Status
	st.Fail(1, "boom")
	if !st.Pending() {
		t.Fatal("expected pending")
	}
	if err := st.Err("op"); err == nil {
		t.Fatal("expected error")
	}
	if st.Pending() {
		t.Error("Err should clear the slot")
	}
	if err := st.Err("op"); err != nil {
		t.Errorf("second Err = %v, want nil", err)
	}
}
