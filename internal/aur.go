// internal/aur.go
package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// aurCategories maps the remote repository's numeric CategoryID (1-based)
// to its category name.
var aurCategories = []string{
	"none",
	"daemons",
	"devel",
	"editors",
	"emulators",
	"games",
	"gnome",
	"i18n",
	"kde",
	"lib",
	"modules",
	"multimedia",
	"network",
	"office",
	"science",
	"system",
	"x11",
	"xfce",
	"kernels",
}

// AURBackend talks to the community repository's JSON RPC and builds
// packages from source through the recipe toolchain.
type AURBackend struct {
	frontend *Frontend
	opts     *AUROptions
	client   *http.Client
	staging  string
}

func newAURBackend(f *Frontend) (Backend, error) {
	b := &AURBackend{
		frontend: f,
		opts:     &f.cfg.AUR,
		client:   &http.Client{Timeout: 30 * time.Second},
		staging:  os.ExpandEnv(f.cfg.AUR.StagingArea),
	}
	if _, err := os.Stat(b.staging); os.IsNotExist(err) {
		logger.Infof("creating staging area: %s", b.staging)
		if err := createDirectory(b.staging, 0755); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *AURBackend) Name() string { return "aur" }

func (b *AURBackend) Capabilities() Capability {
	return All ^ (SearchRegex | SearchPattern | Remove | Query)
}

type rpcResponse struct {
	Type    string          `json:"type"`
	Results json.RawMessage `json:"results"`
}

// rpc calls the repository endpoint with the given request type and
// argument. A response whose type doesn't echo the request means "no data",
// not an error.
func (b *AURBackend) rpc(requestType, arg string) (json.RawMessage, error) {
	endpoint := strings.NewReplacer(
		"{type}", requestType,
		"{arg}", url.QueryEscape(arg),
	).Replace(b.opts.RPCURL)

	resp, err := b.client.Get(endpoint)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "rpc request failed", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{Backend: b.Name(), Message: "rpc request failed",
			Err: fmt.Errorf("%s", resp.Status)}
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "malformed rpc response", Err: err}
	}
	if decoded.Type != requestType {
		return nil, nil
	}
	return decoded.Results, nil
}

// info fetches full metadata for a single package, or nil when the
// repository doesn't know the name.
func (b *AURBackend) info(name string) (*Package, error) {
	results, err := b.rpc("info", name)
	if err != nil || results == nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(results, &raw); err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "malformed info result", Err: err}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return b.packageFromResult(raw)
}

// Query is outside this backend's declared mask; the repository has no
// notion of installed packages.
func (b *AURBackend) Query(string) ([]*Package, error) {
	return nil, ErrDefer
}

// Search asks the repository for packages matching the combined terms.
func (b *AURBackend) Search(terms ...string) ([]*Package, error) {
	results, err := b.rpc("search", strings.Join(terms, " "))
	if err != nil || results == nil {
		return nil, err
	}
	var raw []map[string]any
	if err := json.Unmarshal(results, &raw); err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "malformed search results", Err: err}
	}
	packages := make([]*Package, 0, len(raw))
	for _, result := range raw {
		pkg, err := b.packageFromResult(result)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// packageFromResult normalizes one RPC result into the common package model:
// keys are lowercased, the combined version is split, and the numeric
// category becomes its name.
func (b *AURBackend) packageFromResult(result map[string]any) (*Package, error) {
	fields := make(map[string]any, len(result))
	for key, value := range result {
		fields[strings.ToLower(key)] = value
	}
	if id := toInt64(fields["categoryid"]); id >= 1 && id <= int64(len(aurCategories)) {
		fields["category"] = aurCategories[id-1]
	}
	delete(fields, "categoryid")
	fields["repo"] = strings.ReplaceAll(b.opts.RepoPrefix, "{category}", toString(fields["category"]))

	pkg, err := NewPackage(false, fields)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "malformed package metadata", Err: err}
	}
	return pkg, nil
}

// Sync fetches the package's source snapshot, resolves unmet dependencies
// through the frontend (so another backend may supply them), and builds and
// installs with the packaging toolchain.
func (b *AURBackend) Sync(name string) error {
	pkg, err := b.info(name)
	if err != nil {
		return err
	}
	if pkg == nil {
		return ErrDefer
	}

	packageDir := filepath.Join(b.staging, pkg.Name())
	if err := createDirectory(packageDir, 0755); err != nil {
		return err
	}

	tarball := filepath.Join(packageDir, path.Base(pkg.Meta.URLPath))
	if _, err := os.Stat(tarball); os.IsNotExist(err) {
		source, err := b.resolveURL(pkg.Meta.URLPath)
		if err != nil {
			return err
		}
		if err := downloadFile(source, tarball); err != nil {
			return &BackendError{Backend: b.Name(), Message: "snapshot download failed", Err: err}
		}
	}

	sourceDir := filepath.Join(packageDir, pkg.Name())
	if _, err := os.Stat(sourceDir); os.IsNotExist(err) {
		if err := extractTar(tarball, packageDir); err != nil {
			return &BackendError{Backend: b.Name(), Message: "snapshot extraction failed", Err: err}
		}
	}

	if len(pkg.Meta.Depends) == 0 {
		if err := b.loadRecipeMetadata(pkg, filepath.Join(sourceDir, "PKGBUILD")); err != nil {
			return err
		}
	}
	if err := b.resolveDependencies(pkg); err != nil {
		return err
	}

	result, err := runInteractive(sourceDir, "makepkg", "-si")
	if err != nil {
		return err
	}
	if result.code != 0 {
		os.Stderr.WriteString(result.stderr)
		return &BackendError{Backend: b.Name(), Message: "build failed",
			Err: fmt.Errorf("makepkg exited with status %d", result.code)}
	}
	return nil
}

func (b *AURBackend) loadRecipeMetadata(pkg *Package, recipePath string) error {
	timeout := time.Duration(b.opts.SourceTimeoutSeconds) * time.Second
	fields, err := ParseRecipe(recipePath, timeout)
	if err != nil {
		return &BackendError{Backend: b.Name(), Message: "recipe parsing failed", Err: err}
	}
	fields["name"] = pkg.Name()
	meta, err := NewMetadata(false, fields)
	if err != nil {
		return &BackendError{Backend: b.Name(), Message: "malformed recipe metadata", Err: err}
	}
	pkg.Meta = meta
	pkg.Lazy = false
	return nil
}

// resolveDependencies syncs every unmet dependency through the owning
// frontend, which may satisfy each one from a different backend.
func (b *AURBackend) resolveDependencies(pkg *Package) error {
	depends := make([]string, 0, len(pkg.Meta.Depends))
	for _, dep := range pkg.Meta.Depends {
		depends = append(depends, dep.String())
	}
	unmet, err := deptest(b.frontend.cfg.Pacman.Binary, depends)
	if err != nil {
		return err
	}
	for _, dep := range unmet {
		logger.Infof("resolving dependency: %s", dep)
		if err := b.frontend.Dispatch(Sync, []string{dep.Name}); err != nil {
			return err
		}
	}
	return nil
}

func (b *AURBackend) resolveURL(urlPath string) (string, error) {
	base, err := url.Parse(b.opts.BaseURL)
	if err != nil {
		return "", &BackendError{Backend: b.Name(), Message: "invalid base_url", Err: err}
	}
	ref, err := url.Parse(urlPath)
	if err != nil {
		return "", &BackendError{Backend: b.Name(), Message: "invalid snapshot path", Err: err}
	}
	return base.ResolveReference(ref).String(), nil
}

func (b *AURBackend) Remove(string) error { return ErrDefer }

// Upgrade rebuilds every foreign installed package the repository carries a
// newer version of.
func (b *AURBackend) Upgrade() error {
	result, err := runCapture(b.frontend.cfg.Pacman.Binary, "-Qm")
	if err != nil {
		return err
	}
	if result.code != 0 {
		// No foreign packages installed.
		return nil
	}
	for _, line := range strings.Split(result.stdout, "\n") {
		if line == "" {
			continue
		}
		name, installed, found := strings.Cut(line, " ")
		if !found {
			continue
		}
		current, err := ParseVersion(installed)
		if err != nil {
			logger.Debugf("skipping %s: %v", name, err)
			continue
		}
		remote, err := b.info(name)
		if err != nil {
			return err
		}
		if remote == nil || remote.Version() == nil || remote.Version().Compare(current) <= 0 {
			continue
		}
		logger.Infof("upgrading %s: %s -> %s", name, current, remote.Version())
		if err := b.Sync(name); err != nil {
			if err == ErrDefer {
				continue
			}
			return err
		}
	}
	return nil
}
