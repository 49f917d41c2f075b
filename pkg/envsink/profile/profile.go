// Package profile keeps a shell profile with the exports of every activation,
// so a new shell picks up installed tools.
package profile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"toolsmith/pkg/config"
	envdriver "toolsmith/pkg/driver/env"
	"toolsmith/pkg/envsink"
	"toolsmith/pkg/provider"
	"toolsmith/pkg/shellgen"
)

func init() {
	envsink.Register(&Sink{})
}

type Sink struct {
	// Path overrides the configured profile.
	Path string

	mu sync.Mutex
}

func (s *Sink) Name() string { return "profile" }

func (s *Sink) path() string {
	if s.Path != "" {
		return s.Path
	}
	return envdriver.ExpandPath(config.Current().Activation.Profile)
}

func (s *Sink) Detect(ctx context.Context) error {
	if s.path() == "" {
		return fmt.Errorf("%w: no profile configured", provider.ErrNotApplicable)
	}
	return nil
}

func (s *Sink) Apply(ctx context.Context, c envsink.Change) error {
	var exports []shellgen.Export
	if c.IsList() {
		// Prepends are written in reverse so the first entry ends up first.
		for i := len(c.Added) - 1; i >= 0; i-- {
			exports = append(exports, shellgen.Export{Key: c.Key, Value: c.Added[i], Prepend: true})
		}
	} else {
		exports = append(exports, shellgen.Export{Key: c.Key, Value: c.New})
	}
	if len(exports) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Update(s.path(), exports)
}

// Update rewrites the profile at path so it ends with exports. Older
// statements with the same ID are dropped.
func Update(path string, exports []shellgen.Export) error {
	current, err := Read(path)
	if err != nil {
		return err
	}

	for _, e := range exports {
		current = append(remove(current, e), e)
	}

	out, err := shellgen.Render(shellgen.Bash, current)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("# managed by toolsmith\n"+out), 0644)
}

// Read returns the exports stored in the profile at path. A missing file has none.
func Read(path string) ([]shellgen.Export, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	parsed, lines, err := shellgen.ParseBash(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var exports []shellgen.Export
	for i, e := range parsed {
		if e == nil {
			if line := strings.TrimSpace(lines[i]); line != "" && !strings.HasPrefix(line, "#") {
				return nil, fmt.Errorf("%s:%d is not a toolsmith export", path, i+1)
			}
			continue
		}
		exports = append(exports, *e)
	}
	return exports, nil
}

func remove(exports []shellgen.Export, e shellgen.Export) []shellgen.Export {
	out := exports[:0]
	for _, x := range exports {
		if x.ID() != e.ID() {
			out = append(out, x)
		}
	}
	return out
}
