package function

import (
	"errors"
	"testing"
)

func TestErrorClassifiers(t *testing.T) {
	err := NotFound("routing.Lookup", "no route for key")
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound to be true")
	}
	if IsValidation(err) {
		t.Fatalf("expected IsValidation to be false")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("trap: divide by zero")
	err := Execution("sandbox.Invoke", "handle trapped", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find wrapped cause")
	}
	if !IsExecution(err) {
		t.Fatalf("expected IsExecution to be true")
	}
}

func TestWrapPreservesKind(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindInternal, "storage.Put", "write wasm binary", cause)
	if !IsInternal(err) {
		t.Fatalf("expected IsInternal to be true")
	}
}
