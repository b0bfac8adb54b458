package money

import "testing"

func TestFromFloatRounds(t *testing.T) {
	cases := []struct {
		in   float64
		want Amount
	}{
		{0, 0},
		{100, 10000},
		{12.34, 1234},
		{12.345, 1235},
		{-12.345, -1235},
		{0.005, 1},
	}
	for _, tc := range cases {
		if got := FromFloat(tc.in); got != tc.want {
			t.Fatalf("FromFloat(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRoundTripTwoDecimals(t *testing.T) {
	for _, cents := range []Amount{0, 1, 99, 100, 1234, -1234, 1000000} {
		if got := FromFloat(cents.Float64()); got != cents {
			t.Fatalf("round trip of %d cents gave %d", cents, got)
		}
	}
}

func TestString(t *testing.T) {
	if s := Amount(1234).String(); s != "12.34" {
		t.Fatalf("got %q", s)
	}
	if s := Amount(-5).String(); s != "-0.05" {
		t.Fatalf("got %q", s)
	}
}
