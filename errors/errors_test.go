package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase kind only",
			err:  &Error{Phase: PhaseDecode, Kind: KindOutOfBounds, Offset: -1},
			want: "[decode] out_of_bounds",
		},
		{
			name: "with offset",
			err:  &Error{Phase: PhaseDecode, Kind: KindTruncated, Offset: 16},
			want: "[decode] truncated at offset 16",
		},
		{
			name: "type mismatch",
			err:  TypeMismatch(PhaseDecode, "Int", "Long"),
			want: "[decode] type_mismatch: want Int, got Long",
		},
		{
			name: "detail",
			err:  MalformedContainer(PhaseEncode, "pop on empty frame stack"),
			want: "[encode] malformed_container: pop on empty frame stack",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := Truncated(PhaseDecode, 8, 100, 16)

	if !stderrors.Is(err, &Error{Phase: PhaseDecode, Kind: KindTruncated}) {
		t.Error("Is() should match same phase and kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseDecode, Kind: KindOutOfBounds}) {
		t.Error("Is() should not match a different kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseEncode, Kind: KindTruncated}) {
		t.Error("Is() should not match a different phase")
	}
}

func TestIsKind(t *testing.T) {
	inner := GrowthFailure(4096, stderrors.New("out of memory"))
	wrapped := fmt.Errorf("write int: %w", inner)

	if !IsKind(wrapped, KindGrowthFailure) {
		t.Error("IsKind() should find the kind through wrapping")
	}
	if IsKind(wrapped, KindTypeMismatch) {
		t.Error("IsKind() found a kind that is not present")
	}
	if IsKind(nil, KindTypeMismatch) {
		t.Error("IsKind(nil) = true, want false")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("mmap failed")
	err := GrowthFailure(1024, cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "mmap failed") {
		t.Errorf("Error() = %q, should contain cause text", err.Error())
	}
}

func TestAt(t *testing.T) {
	base := TypeMismatch(PhaseDecode, "String", "Bytes")
	located := base.At(40)

	if base.Offset != -1 {
		t.Errorf("At() mutated the original: offset = %d", base.Offset)
	}
	if located.Offset != 40 {
		t.Errorf("located.Offset = %d, want 40", located.Offset)
	}
	if !strings.Contains(located.Error(), "at offset 40") {
		t.Errorf("Error() = %q, want offset mention", located.Error())
	}
}
