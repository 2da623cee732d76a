package phone

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "0157 1234567", want: "+491571234567", ok: true},
		{in: "+1 555 1234", want: "+4915551234", ok: true},
		{in: "", ok: false},
		{in: "   \t", ok: false},
		{in: "1701234567", want: "+491701234567", ok: true},
		{in: "+49 (157) 123-4567", want: "+491571234567", ok: true},
		{in: "0049 157 1234567", want: "+490491571234567", ok: true},
		{in: "  +44 20 7946 0958 ", want: "+44 20 7946 0958", ok: true},
		{in: "(30) 1234567", want: "+49301234567", ok: true},
		{in: "+15551234", want: "+4915551234", ok: true},
	}

	for _, tc := range cases {
		got, ok := Normalize(tc.in)
		if ok != tc.ok {
			t.Fatalf("Normalize(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
