// internal/aur_test.go
package internal

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testAURBackend(t *testing.T, handler http.HandlerFunc) *AURBackend {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.AUR.RPCURL = server.URL + "/rpc.php?type={type}&arg={arg}"
	cfg.AUR.StagingArea = t.TempDir()

	backend, err := newAURBackend(&Frontend{cfg: cfg})
	if err != nil {
		t.Fatal(err)
	}
	return backend.(*AURBackend)
}

func TestAURInfo(t *testing.T) {
	b := testAURBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("arg"); got != "yay" {
			t.Errorf("arg = %q", got)
		}
		fmt.Fprint(w, `{"type":"info","results":{
			"Name":"yay","Version":"12.0.1-1","CategoryID":16,
			"Description":"Yet another yogurt","URLPath":"/snapshot/yay.tar.gz",
			"NumVotes":1200}}`)
	})

	pkg, err := b.info("yay")
	if err != nil {
		t.Fatal(err)
	}
	if pkg == nil {
		t.Fatal("expected a package")
	}
	if pkg.Name() != "yay" || pkg.Meta.Pkgver != "12.0.1" || pkg.Meta.Pkgrel != "1" {
		t.Errorf("package = %v", pkg)
	}
	if pkg.Meta.Category != "system" {
		t.Errorf("category = %q", pkg.Meta.Category)
	}
	if pkg.Meta.Repo != "aur:system" {
		t.Errorf("repo = %q", pkg.Meta.Repo)
	}
	if pkg.Meta.Votes != 1200 {
		t.Errorf("votes = %d", pkg.Meta.Votes)
	}
	if pkg.Meta.URLPath != "/snapshot/yay.tar.gz" {
		t.Errorf("urlpath = %q", pkg.Meta.URLPath)
	}
}

// A response type that doesn't echo the request means the repository has no
// data for the name, so sync must fall through to the next backend.
func TestAURInfoUnknownPackage(t *testing.T) {
	b := testAURBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"error","results":"No results found"}`)
	})

	pkg, err := b.info("no-such-package")
	if err != nil {
		t.Fatal(err)
	}
	if pkg != nil {
		t.Fatalf("expected no package, got %v", pkg)
	}
	if err := b.Sync("no-such-package"); err != ErrDefer {
		t.Errorf("sync of unknown package should defer, got %v", err)
	}
}

func TestAURSearch(t *testing.T) {
	b := testAURBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("arg"); got != "web browser" {
			t.Errorf("arg = %q", got)
		}
		fmt.Fprint(w, `{"type":"search","results":[
			{"Name":"luakit","Version":"2.3-1","Description":"Fast browser","CategoryID":13},
			{"Name":"surf","Version":"2.1-1","Description":"Simple web browser"}]}`)
	})

	packages, err := b.Search("web", "browser")
	if err != nil {
		t.Fatal(err)
	}
	if len(packages) != 2 {
		t.Fatalf("got %d packages", len(packages))
	}
	if packages[0].Name() != "luakit" || packages[0].Meta.Category != "network" {
		t.Errorf("first result = %v, category %q", packages[0], packages[0].Meta.Category)
	}
	if packages[1].Meta.Category != "" {
		t.Errorf("missing category should stay empty, got %q", packages[1].Meta.Category)
	}
}

func TestAURRPCErrors(t *testing.T) {
	b := testAURBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})
	if _, err := b.info("anything"); err == nil {
		t.Error("expected an error for a failing endpoint")
	}

	b = testAURBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})
	if _, err := b.Search("anything"); err == nil {
		t.Error("expected an error for a malformed response")
	}
}

func TestAURCapabilities(t *testing.T) {
	b := testAURBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	mask := b.Capabilities()
	if Test(mask, Query) || Test(mask, Remove) {
		t.Error("query and remove are not offered")
	}
	if !Test(mask, Sync) || !Test(mask, Search) || !Test(mask, Upgrade) {
		t.Error("sync, search and upgrade should be offered")
	}
	if _, err := b.Query("foo"); err != ErrDefer {
		t.Errorf("query should defer, got %v", err)
	}
}

func TestResolveURL(t *testing.T) {
	b := testAURBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	b.opts.BaseURL = "https://example.org"
	got, err := b.resolveURL("/snapshot/yay.tar.gz")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.org/snapshot/yay.tar.gz" {
		t.Errorf("resolved = %q", got)
	}
}
