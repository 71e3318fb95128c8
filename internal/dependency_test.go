// internal/dependency_test.go
package internal

import "testing"

func TestParseDependency(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		op     CompareOp
		target string
	}{
		{"foo", "foo", OpAny, ""},
		{"foo>1.2", "foo", OpGreater, "0:1.2-1"},
		{"foo<1.2", "foo", OpLess, "0:1.2-1"},
		{"foo=1.2-1", "foo", OpEqual, "0:1.2-1"},
		{"foo>=1.2-1", "foo", OpGreaterEqual, "0:1.2-1"},
		{"foo<=2:1.2-1", "foo", OpLessEqual, "2:1.2-1"},
	}
	for _, tt := range tests {
		dep, err := ParseDependency(tt.in)
		if err != nil {
			t.Fatalf("ParseDependency(%q): %v", tt.in, err)
		}
		if dep.Name != tt.name || dep.Op != tt.op {
			t.Errorf("ParseDependency(%q) = %s/%v, want %s/%v", tt.in, dep.Name, dep.Op, tt.name, tt.op)
		}
		if tt.target == "" {
			if dep.Target != nil {
				t.Errorf("ParseDependency(%q) has unexpected target %s", tt.in, dep.Target)
			}
		} else if dep.Target == nil || dep.Target.String() != tt.target {
			t.Errorf("ParseDependency(%q) target = %v, want %s", tt.in, dep.Target, tt.target)
		}
	}
}

func TestParseDependencyErrors(t *testing.T) {
	for _, in := range []string{"", ">=1.2", "foo><1.2", "foo>="} {
		if _, err := ParseDependency(in); err == nil {
			t.Errorf("ParseDependency(%q) should fail", in)
		}
	}
}

func TestDependencyString(t *testing.T) {
	for _, in := range []string{"foo", "foo>=0:1.2-1", "foo<0:2.0-1"} {
		dep, err := ParseDependency(in)
		if err != nil {
			t.Fatal(err)
		}
		if dep.String() != in {
			t.Errorf("String() = %q, want %q", dep.String(), in)
		}
	}
}

func mustPackage(t *testing.T, fields map[string]any) *Package {
	t.Helper()
	pkg, err := NewPackage(false, fields)
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

func TestDependencySatisfiedBy(t *testing.T) {
	foo13 := mustPackage(t, map[string]any{"name": "foo", "version": "1.3-1"})
	foo11 := mustPackage(t, map[string]any{"name": "foo", "version": "1.1-1"})
	bar20 := mustPackage(t, map[string]any{"name": "bar", "version": "2.0-1"})

	tests := []struct {
		dep  string
		pkg  *Package
		want bool
	}{
		{"foo>=1.2-1", foo13, true},
		{"foo>=1.2-1", foo11, false},
		{"foo", foo13, true},
		{"foo", foo11, true},
		{"foo>=1.2-1", bar20, false}, // name mismatch regardless of version
		{"foo", bar20, false},
		{"foo=1.3-1", foo13, true},
		{"foo<1.3-1", foo13, false},
		{"foo<=1.3-1", foo13, true},
	}
	for _, tt := range tests {
		dep, err := ParseDependency(tt.dep)
		if err != nil {
			t.Fatal(err)
		}
		if got := dep.SatisfiedBy(tt.pkg); got != tt.want {
			t.Errorf("%q satisfied by %s = %v, want %v", tt.dep, tt.pkg, got, tt.want)
		}
	}
}
