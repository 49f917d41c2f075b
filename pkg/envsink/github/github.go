// Package github exports environment changes to later steps of a GitHub Actions job.
package github

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"toolsmith/pkg/config"
	"toolsmith/pkg/envsink"
	"toolsmith/pkg/provider"
)

func init() {
	envsink.Register(&Sink{})
}

type Sink struct{}

func (s *Sink) Name() string { return "github" }

func (s *Sink) Detect(ctx context.Context) error {
	if enabled := config.Current().Activation.GitHubActions; enabled != nil && !*enabled {
		return fmt.Errorf("%w: disabled in config", provider.ErrNotApplicable)
	}
	if os.Getenv("GITHUB_ENV") == "" || os.Getenv("GITHUB_PATH") == "" {
		return fmt.Errorf("%w: not running in GitHub Actions", provider.ErrNotApplicable)
	}
	return nil
}

func (s *Sink) Apply(ctx context.Context, c envsink.Change) error {
	if c.Key == "PATH" {
		if len(c.Added) == 0 {
			return nil
		}
		// The runner prepends each line, so the entry meant to be first goes last.
		lines := slices.Clone(c.Added)
		slices.Reverse(lines)
		return appendFile(os.Getenv("GITHUB_PATH"), strings.Join(lines, "\n")+"\n")
	}
	return appendFile(os.Getenv("GITHUB_ENV"), envLine(c.Key, c.New))
}

const delimiter = "TOOLSMITH_EOF"

func envLine(key, value string) string {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter)
	}
	return key + "=" + value + "\n"
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
