package caldate

import (
	"errors"
	"testing"
)

func TestParse_FieldOrder(t *testing.T) {
	tests := []struct {
		raw  string
		want Date
	}{
		{"1914", Date{Year: 1914, Month: 1, Day: 1, Precision: Year}},
		{"5-1914", Date{Year: 1914, Month: 5, Day: 1, Precision: Month}},
		{"3-5-1914", Date{Year: 1914, Month: 5, Day: 3, Precision: Day}},
		{" 03 - 05 - 1914 ", Date{Year: 1914, Month: 5, Day: 3, Precision: Day}},
		{"29-2-1916", Date{Year: 1916, Month: 2, Day: 29, Precision: Day}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.raw)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"1-2-3-1914",
		"abc",
		"13-1914",
		"32-1-1914",
		"29-2-1915",
		"0",
		"-1914",
		"1914-",
	}
	for _, raw := range bad {
		_, err := Parse(raw)
		if err == nil {
			t.Errorf("Parse(%q): expected error", raw)
			continue
		}
		if !errors.Is(err, ErrInvalidDateFormat) {
			t.Errorf("Parse(%q): expected ErrInvalidDateFormat, got %v", raw, err)
		}
		var fe *FormatError
		if !errors.As(err, &fe) || fe.Raw != raw {
			t.Errorf("Parse(%q): expected *FormatError carrying the raw value, got %v", raw, err)
		}
	}
}

func TestOrdering(t *testing.T) {
	y1914 := MustParse("1914")
	may1914 := MustParse("3-5-1914")
	y1915 := MustParse("1915")

	if !y1914.Before(may1914) {
		t.Error("expected 1914 < 3-5-1914")
	}
	if !may1914.Before(y1915) {
		t.Error("expected 3-5-1914 < 1915")
	}
	if !y1915.After(y1914) {
		t.Error("expected 1915 > 1914")
	}
	// Start-of-period semantics.
	if !MustParse("1914").Equal(MustParse("1-1-1914")) {
		t.Error("expected 1914 == 1-1-1914")
	}
	if !MustParse("5-1914").Equal(MustParse("1-5-1914")) {
		t.Error("expected 5-1914 == 1-5-1914")
	}
}

func TestString_RoundTripsPrecision(t *testing.T) {
	for _, raw := range []string{"1914", "5-1914", "3-5-1914"} {
		if got := MustParse(raw).String(); got != raw {
			t.Errorf("String() = %q, want %q", got, raw)
		}
	}
	if got := MustParse("5-1914").ISO(); got != "1914-05-01" {
		t.Errorf("ISO() = %q", got)
	}
}

func TestIsZero(t *testing.T) {
	var d Date
	if !d.IsZero() {
		t.Error("expected zero Date to report IsZero")
	}
	if MustParse("1914").IsZero() {
		t.Error("parsed date should not be zero")
	}
}
