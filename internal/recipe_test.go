// internal/recipe_test.go
package internal

import (
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestParseShellVariables(t *testing.T) {
	out := `pkgname=foobar
pkgver=1.2.3
depends=([0]="glibc" [1]="zlib>=1.2")
BASH_VERSINFO=([0]="5")
multiline='first
    second'
not a variable line
=nameless
`
	vars := parseShellVariables(out)
	if vars["pkgname"] != "foobar" {
		t.Errorf("pkgname = %q", vars["pkgname"])
	}
	if vars["depends"] != `([0]="glibc" [1]="zlib>=1.2")` {
		t.Errorf("depends = %q", vars["depends"])
	}
	if _, ok := vars["not a variable line"]; ok {
		t.Error("non-assignment line kept")
	}
	if _, ok := vars[""]; ok {
		t.Error("empty name kept")
	}
	// Continuation lines of multi-line values are indented and skipped.
	if _, ok := vars["    second'"]; ok {
		t.Error("continuation line kept")
	}
}

func TestRecipeArrayDecoding(t *testing.T) {
	matches := recipeArrayRE.FindAllStringSubmatch(`([0]="glibc" [1]="zlib>=1.2")`, -1)
	if len(matches) != 2 || matches[0][1] != "glibc" || matches[1][1] != "zlib>=1.2" {
		t.Fatalf("matches = %v", matches)
	}
}

func TestParseRecipe(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}

	recipe := `pkgname=hello
pkgver=2.12
pkgrel=1
pkgdesc="A program that produces a familiar, friendly greeting"
depends=('glibc' 'gettext')
source=("https://ftp.gnu.org/gnu/hello/hello-${pkgver}.tar.gz")
`
	path := filepath.Join(t.TempDir(), "PKGBUILD")
	if err := os.WriteFile(path, []byte(recipe), 0644); err != nil {
		t.Fatal(err)
	}

	fields, err := ParseRecipe(path, 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if fields["pkgname"] != "hello" || fields["pkgver"] != "2.12" {
		t.Errorf("fields = %v", fields)
	}
	if fields["pkgdesc"] != "A program that produces a familiar, friendly greeting" {
		t.Errorf("pkgdesc = %q", fields["pkgdesc"])
	}
	deps, ok := fields["depends"].([]string)
	if !ok || !reflect.DeepEqual(deps, []string{"glibc", "gettext"}) {
		t.Errorf("depends = %v", fields["depends"])
	}
	sources, ok := fields["source"].([]string)
	if !ok || len(sources) != 1 || sources[0] != "https://ftp.gnu.org/gnu/hello/hello-2.12.tar.gz" {
		t.Errorf("source = %v", fields["source"])
	}
	for name := range recipeNoise {
		if _, ok := fields[name]; ok {
			t.Errorf("shell bookkeeping variable %s leaked into metadata", name)
		}
	}
}

func TestParseRecipeTimeout(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}

	path := filepath.Join(t.TempDir(), "PKGBUILD")
	if err := os.WriteFile(path, []byte("sleep 60\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseRecipe(path, 100*time.Millisecond); err == nil {
		t.Fatal("expected a timeout error")
	}
}
