// internal/version_test.go
package internal

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		epoch   int
		version string
		release int
	}{
		{"1.0", 0, "1.0", 1},
		{"1.0-2", 0, "1.0", 2},
		{"1:2.0-1", 1, "2.0", 1},
		{"0:9.9-9", 0, "9.9", 9},
		{"2.4.62", 0, "2.4.62", 1},
		{"1.0-o", 0, "1.0", 0},
		{"3:4.5alpha-12", 3, "4.5alpha", 12},
	}
	for _, tt := range tests {
		v, err := ParseVersion(tt.in)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", tt.in, err)
		}
		if v.Epoch != tt.epoch || v.Version != tt.version || v.Release != tt.release {
			t.Errorf("ParseVersion(%q) = %d/%s/%d, want %d/%s/%d",
				tt.in, v.Epoch, v.Version, v.Release, tt.epoch, tt.version, tt.release)
		}
	}
}

func TestParseVersionErrors(t *testing.T) {
	for _, in := range []string{"", "a:1.0", "1.0-x", "1:2:3", "1.0-1-1"} {
		if _, err := ParseVersion(in); err == nil {
			t.Errorf("ParseVersion(%q) should fail", in)
		}
	}
}

func TestVersionRoundTrip(t *testing.T) {
	for _, in := range []string{"1.0", "1.0-2", "1:2.0-1", "1.0-o", "0:9.9-9"} {
		first, err := ParseVersion(in)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", in, err)
		}
		second, err := ParseVersion(first.String())
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", first.String(), err)
		}
		if !first.Equal(second) || first.String() != second.String() {
			t.Errorf("round trip of %q: %s != %s", in, first, second)
		}
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0-1", "1.0-1", 0},
		{"1.0-2", "1.0-1", 1},          // release breaks ties
		{"1:2.0-1", "0:9.9-9", 1},      // epoch dominates
		{"1:2.0-1", "9.9-9", 1},        // implicit epoch is zero
		{"1.2", "1.10", -1},            // numeric components compare numerically
		{"1.0a", "1.0b", -1},           // alpha components compare lexically
		{"1.0", "1.0a", -1},            // prefix sorts first
		{"1.0.1", "1.0a", -1},          // numeric sorts before alpha
		{"2.0", "2.0rc1", -1},
		{"1.0-o", "1.0-1", -1},         // "o" release is zero
	}
	for _, tt := range tests {
		a, err := ParseVersion(tt.a)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", tt.a, err)
		}
		b, err := ParseVersion(tt.b)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", tt.b, err)
		}
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := b.Compare(a); got != -tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestVersionString(t *testing.T) {
	v, err := ParseVersion("1.0-o")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "0:1.0-0" {
		t.Errorf("String() = %q, want %q", v.String(), "0:1.0-0")
	}
}
