// internal/utils.go
package internal

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

var logger = logrus.New()

func init() {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetOutput(os.Stderr)
}

// SetVerbose switches the package logger to debug level.
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// alpmDBPath is the local package manager's database root. Variable so tests
// can point it at a fixture tree.
var alpmDBPath = "/var/lib/pacman"

type execResult struct {
	stdout string
	stderr string
	code   int
}

// runCapture executes a command with both output streams captured. A nonzero
// exit is reported through the result code; the returned error is reserved
// for failures to run the command at all.
func runCapture(name string, args ...string) (*execResult, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), "LANG=C")
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	result := &execResult{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", name, err)
		}
		result.code = exitErr.ExitCode()
	}
	return result, nil
}

// runInteractive executes a command wired to the caller's terminal, with
// stderr captured so callers can recognize failure signals before deciding
// whether to surface it.
func runInteractive(dir, name string, args ...string) (*execResult, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LANG=C")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	result := &execResult{stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", name, err)
		}
		result.code = exitErr.ExitCode()
	}
	return result, nil
}

// asRoot prefixes a command with sudo when the current user is not root.
func asRoot(name string, args ...string) (string, []string) {
	if os.Geteuid() == 0 {
		return name, args
	}
	if _, err := exec.LookPath("sudo"); err == nil {
		return "sudo", append([]string{name}, args...)
	}
	return "su", []string{"-c", name + " " + strings.Join(args, " ")}
}

// downloadFile fetches url into dest, rendering a progress bar sized from
// the response when the server reports a length.
func downloadFile(url, dest string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}

	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer file.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(dest))
	if _, err := io.Copy(io.MultiWriter(file, bar), resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// createDirectory creates a directory with the given mode.
func createDirectory(path string, mode os.FileMode) error {
	if err := os.MkdirAll(path, mode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// extractTar unpacks a gzip- or xz-compressed tar archive into dst, choosing
// the decompressor from the file name. Plain tars pass through.
func extractTar(src, dst string) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	reader, err := decompress(src, file)
	if err != nil {
		return err
	}
	return untar(tar.NewReader(reader), dst)
}

func decompress(name string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".gz") || strings.HasSuffix(name, ".tgz"):
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzr, nil
	case strings.HasSuffix(name, ".xz"):
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzr, nil
	}
	return r, nil
}

// sniffCompression wraps r with the decompressor its magic bytes call for,
// passing uncompressed data through untouched.
func sniffCompression(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read stream header: %w", err)
	}
	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzr, nil
	case len(magic) >= 6 && string(magic) == "\xfd7zXZ\x00":
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzr, nil
	}
	return br, nil
}

func untar(tr *tar.Reader, dst string) error {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		if strings.Contains(header.Name, "..") {
			return fmt.Errorf("archive entry escapes destination: %s", header.Name)
		}
		target := filepath.Join(dst, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := createDirectory(target, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := createDirectory(filepath.Dir(target), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_RDWR, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("failed to write file contents: %w", err)
			}
			f.Close()
		}
	}
	return nil
}

// installedVersion returns the locally installed version of name, or nil
// when the package is not installed, by globbing the local package database.
func installedVersion(name string) *Version {
	matches, err := filepath.Glob(filepath.Join(alpmDBPath, "local", name+"-[0-9]*"))
	if err != nil || len(matches) == 0 {
		return nil
	}
	suffix := filepath.Base(matches[0])[len(name)+1:]
	v, err := ParseVersion(suffix)
	if err != nil {
		return nil
	}
	return v
}

// deptest asks the local package manager which of the given dependency
// strings are currently unmet. The manager prints one unmet dependency per
// line on stdout.
func deptest(pacmanBinary string, deps []string) ([]*Dependency, error) {
	if len(deps) == 0 {
		return nil, nil
	}
	args := append([]string{"-T"}, deps...)
	result, err := runCapture(pacmanBinary, args...)
	if err != nil {
		return nil, err
	}
	var unmet []*Dependency
	for _, field := range strings.Fields(result.stdout) {
		dep, err := ParseDependency(field)
		if err != nil {
			return nil, err
		}
		unmet = append(unmet, dep)
	}
	return unmet, nil
}

// wrapText wraps s at width columns, prefixing every line with indent spaces.
func wrapText(s string, width, indent int) string {
	prefix := strings.Repeat(" ", indent)
	words := strings.Fields(s)
	if len(words) == 0 {
		return prefix
	}
	var lines []string
	line := prefix + words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = prefix + word
			continue
		}
		line += " " + word
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
