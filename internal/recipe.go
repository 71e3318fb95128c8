// internal/recipe.go
package internal

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// The recipe parser uses bash to do what bash was created to do: parse bash
// scripts. Recipes routinely use parameter expansion, command substitution
// and conditional assignment, so the script is sourced and the resulting
// variable environment diffed against a clean shell's. Sourcing untrusted
// recipes is bounded by a timeout and dropped to fakeroot when available;
// the result is best effort by nature.

var recipeArrayRE = regexp.MustCompile(`\[\d+\]="(.*?)"`)

// recipeNoise lists shell bookkeeping variables that appear in the diff but
// are never recipe metadata.
var recipeNoise = map[string]bool{
	"PIPESTATUS":  true,
	"OLDPWD":      true,
	"SHELLOPTS":   true,
	"BASH_ARGC":   true,
	"BASH_ARGV":   true,
	"BASH_LINENO": true,
	"BASH_SOURCE": true,
	"FUNCNAME":    true,
	"_":           true,
}

// ParseRecipe extracts the variables a build recipe assigns, as a flat map
// of name to string or []string. The timeout bounds the sourcing subprocess;
// a recipe that hangs is killed and reported as an error.
func ParseRecipe(path string, timeout time.Duration) (map[string]any, error) {
	baseline, err := recipeShell(context.Background(), "set")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sourced, err := recipeShell(ctx, fmt.Sprintf(". %s; set", shellQuote(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to source recipe %s: %w", path, err)
	}

	base := parseShellVariables(baseline)
	vars := parseShellVariables(sourced)

	result := make(map[string]any)
	for name, value := range vars {
		if _, exists := base[name]; exists || recipeNoise[name] {
			continue
		}
		if items := recipeArrayRE.FindAllStringSubmatch(value, -1); items != nil {
			list := make([]string, 0, len(items))
			for _, item := range items {
				list = append(list, item[1])
			}
			result[name] = list
			continue
		}
		result[name] = strings.Trim(value, "'\"")
	}
	return result, nil
}

// recipeShell runs a bash command line under fakeroot when available, so a
// recipe never parses with more privilege than the invoking user.
func recipeShell(ctx context.Context, command string) (string, error) {
	name, args := "bash", []string{"-c", command}
	if _, err := exec.LookPath("fakeroot"); err == nil {
		name, args = "fakeroot", []string{"bash", "-c", command}
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("shell invocation failed: %w", err)
	}
	return string(out), nil
}

// parseShellVariables reads `set` output, keeping only top-level name=value
// lines (continuation lines of multi-line values are indented or lack "=").
func parseShellVariables(out string) map[string]string {
	vars := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		if len(strings.TrimLeft(line, " \t")) != len(line) {
			continue
		}
		name, value, found := strings.Cut(line, "=")
		if !found || name == "" || strings.ContainsAny(name, " \t") {
			continue
		}
		vars[name] = value
	}
	return vars
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
