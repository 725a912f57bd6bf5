package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "GetZillowData",
			kind:    "fetch failed",
			err:     fmt.Errorf("connection refused"),
			wantMsg: "zillowkit: GetZillowData: fetch failed: connection refused",
		},
		{
			name:    "without original error",
			op:      "PrepZillow",
			kind:    "empty table",
			err:     nil,
			wantMsg: "zillowkit: PrepZillow: empty table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("RegressionErrors", 5, 4, 0)

	want := "zillowkit: RegressionErrors: dimension mismatch on axis 0 (rows). Expected 5, got 4"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Got != 4 {
		t.Errorf("Got = %d, want 4", dimErr.Got)
	}
}

func TestNewColumnError(t *testing.T) {
	err := NewColumnError("PrepZillow", "fips", "column not found")

	want := `zillowkit: PrepZillow: column "fips": column not found`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var colErr *ColumnError
	if !As(err, &colErr) {
		t.Error("Error should be castable to *ColumnError")
	}
}

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError("ZillowCountyDataAsInt", "county", "unexpected label",
		[]string{"LA", "Orange", "Ventura"}, []string{"Kern"})

	if !strings.Contains(err.Error(), `column "county": unexpected label`) {
		t.Errorf("Error() = %v", err.Error())
	}
	if !strings.Contains(err.Error(), "[Kern]") {
		t.Errorf("Error() should list offending labels, got %v", err.Error())
	}

	var schemaErr *SchemaError
	if !As(err, &schemaErr) {
		t.Error("Error should be castable to *SchemaError")
	}
}

func TestNewTypeConversionError(t *testing.T) {
	err := NewTypeConversionError("area", 3, 1500.5, "int")

	want := `zillowkit: cannot convert column "area" row 3 value 1500.5 to int`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("BaselineMeanErrors", "empty vector")

	want := "zillowkit: BaselineMeanErrors: empty vector"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValueError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValueError")
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrNoSource, "in AcquireZillow")

	if !Is(wrapped, ErrNoSource) {
		t.Error("Expected Is(wrapped, ErrNoSource) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in AcquireZillow") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d rows", "ReadCache", 10)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in ReadCache: expected 10 rows") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestWarnRoutesToHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(error) {})

	Warn(NewDataConversionWarning("float64", "int", "test"))

	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	if !strings.Contains(got[0].Error(), "float64 to int") {
		t.Errorf("unexpected warning %q", got[0].Error())
	}
}

func TestWarnPrefersZerolog(t *testing.T) {
	var handler, zl int
	SetWarningHandler(func(error) { handler++ })
	SetZerologWarnFunc(func(error) { zl++ })
	defer SetZerologWarnFunc(nil)

	Warn(New("x"))

	if handler != 0 || zl != 1 {
		t.Errorf("handler=%d zerolog=%d, want 0 and 1", handler, zl)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("op", []float64{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := CheckNumericalStability("op", []float64{1, math.NaN(), math.Inf(1)})
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Index != 1 {
		t.Errorf("Index = %d, want 1", numErr.Index)
	}
}

func TestIsIntegral(t *testing.T) {
	tests := []struct {
		v    float64
		want bool
	}{
		{3, true},
		{-2, true},
		{1500.5, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tt := range tests {
		if got := IsIntegral(tt.v); got != tt.want {
			t.Errorf("IsIntegral(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "PrepZillow")
		panic("index out of range")
	}

	err := fn()
	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "PrepZillow" {
		t.Errorf("Operation = %q", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if panicErr.Error() != "panic in PrepZillow: index out of range" {
		t.Errorf("Error() = %q", panicErr.Error())
	}
}

func TestSafeExecute(t *testing.T) {
	if err := SafeExecute("ok", func() error { return nil }); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	base := New("boom")
	if err := SafeExecute("fail", func() error { return base }); !Is(err, base) {
		t.Errorf("expected original error, got %v", err)
	}

	err := SafeExecute("panic", func() error { panic(42) })
	var panicErr *PanicError
	if !As(err, &panicErr) || panicErr.PanicValue != 42 {
		t.Errorf("expected PanicError with value 42, got %v", err)
	}
}
