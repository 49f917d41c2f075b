// Package shellgen renders and parses environment export statements.
package shellgen

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Export is one environment change.
type Export struct {
	Key   string
	Value string
	// Prepend puts Value in front of the current value of Key instead of replacing it.
	Prepend bool
}

// ID identifies the statement an Export renders to. Prepends are keyed by their value.
func (e Export) ID() string {
	if e.Prepend {
		return e.Key + "=" + e.Value
	}
	return e.Key
}

const (
	Bash = "bash"
	Pwsh = "pwsh"
)

// Render writes exports for shell, in order.
func Render(shell string, exports []Export) (string, error) {
	var b strings.Builder
	for _, e := range exports {
		line, err := Line(shell, e)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Line renders a single export.
func Line(shell string, e Export) (string, error) {
	switch shell {
	case Bash, "sh", "zsh":
		if e.Prepend {
			return fmt.Sprintf(`export %s="%s:$%s"`, e.Key, bashEscape(e.Value), e.Key), nil
		}
		return fmt.Sprintf(`export %s="%s"`, e.Key, bashEscape(e.Value)), nil
	case Pwsh, "powershell":
		if e.Prepend {
			return fmt.Sprintf(`$env:%s = '%s' + [IO.Path]::PathSeparator + $env:%s`, e.Key, pwshEscape(e.Value), e.Key), nil
		}
		return fmt.Sprintf(`$env:%s = '%s'`, e.Key, pwshEscape(e.Value)), nil
	}
	return "", fmt.Errorf("unsupported shell %q", shell)
}

var bashExport = regexp.MustCompile(`^export ([A-Za-z_][A-Za-z0-9_]*)="(.*)"$`)

// ParseBash reads the export lines produced by Render for bash. Other lines are returned as nil exports
// so callers can keep them untouched.
func ParseBash(r io.Reader) ([]*Export, []string, error) {
	var (
		exports []*Export
		lines   []string
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		lines = append(lines, line)
		m := bashExport.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			exports = append(exports, nil)
			continue
		}
		e := &Export{Key: m[1], Value: m[2]}
		if v, ok := strings.CutSuffix(e.Value, ":$"+e.Key); ok {
			e.Value, e.Prepend = v, true
		}
		e.Value = bashUnescape(e.Value)
		exports = append(exports, e)
	}
	return exports, lines, sc.Err()
}

var bashEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")

func bashEscape(s string) string { return bashEscaper.Replace(s) }

func bashUnescape(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func pwshEscape(s string) string { return strings.ReplaceAll(s, "'", "''") }
