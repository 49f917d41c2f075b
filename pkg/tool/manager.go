package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"toolsmith/pkg/config"
	"toolsmith/pkg/db"
	envdriver "toolsmith/pkg/driver/env"
	"toolsmith/pkg/driver/httpclient"
	"toolsmith/pkg/envsink"
	"toolsmith/pkg/platform"
	"toolsmith/pkg/tool/activate"
	"toolsmith/pkg/tool/artifact"
	"toolsmith/pkg/tool/memo"
	"toolsmith/pkg/tool/resolution"
	"toolsmith/pkg/tool/strategy"
)

var ErrUnknownTool = errors.New("unknown tool")

// Installation is a tool that is present on the host.
type Installation struct {
	Tool      string `json:"tool"`
	Requested string `json:"requested"`
	// Version is the installed version. It is empty when a package manager picked its default
	// without reporting it.
	Version  string `json:"version"`
	Arch     string `json:"arch"`
	BinDir   string `json:"bin_dir"`
	Strategy string `json:"strategy"`
}

// Recorder persists installation receipts.
type Recorder interface {
	RecordInstall(ctx context.Context, r db.Receipt) error
}

// Planner lists the strategies tried for a definition, in order.
type Planner func(def *Definition, req strategy.Request) []strategy.Strategy

type installKey struct {
	tool    string
	version string
	arch    string
}

type Manager struct {
	platform    platform.Info
	platformSet bool
	defaults    *resolution.Defaults
	resolver    *resolution.Resolver
	planner     Planner
	recorder    Recorder
	env         activate.Environment
	probe       artifact.Probe
	toolsDir    string
	shimsDir    string
	checksums   map[string]string
	progress    io.Writer
	priority    int

	installs memo.Cache[installKey, Installation]
}

type Option func(*Manager)

// WithPlatform skips host detection.
func WithPlatform(p platform.Info) Option {
	return func(m *Manager) {
		m.platform = p
		m.platformSet = true
	}
}

// WithStrategies replaces the default plan of every tool.
func WithStrategies(p Planner) Option {
	return func(m *Manager) { m.planner = p }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithDefaults replaces the default version tables, config overrides included.
func WithDefaults(d resolution.Defaults) Option {
	return func(m *Manager) { m.defaults = &d }
}

func WithToolsDir(dir string) Option {
	return func(m *Manager) { m.toolsDir = dir }
}

func WithShimsDir(dir string) Option {
	return func(m *Manager) { m.shimsDir = dir }
}

// WithProbe replaces the HTTP reachability check used by archive locators.
func WithProbe(p artifact.Probe) Option {
	return func(m *Manager) { m.probe = p }
}

// WithEnvironment sets where activation writes. Without it the environment sinks are detected.
func WithEnvironment(env activate.Environment) Option {
	return func(m *Manager) { m.env = env }
}

func WithChecksums(checksums map[string]string) Option {
	return func(m *Manager) { m.checksums = checksums }
}

// WithProgress shows download progress bars on w.
func WithProgress(w io.Writer) Option {
	return func(m *Manager) { m.progress = w }
}

// NewManager builds a manager from the current configuration and the detected host.
func NewManager(ctx context.Context, opts ...Option) (*Manager, error) {
	cfg := config.Current()
	m := &Manager{
		toolsDir:  cfg.ToolsDir,
		shimsDir:  cfg.ShimsDir,
		checksums: cfg.Checksums,
		priority:  cfg.Activation.AlternativesPriority,
	}
	for _, opt := range opts {
		opt(m)
	}

	if !m.platformSet {
		p, err := envdriver.DetectPlatform(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to detect platform: %w", err)
		}
		m.platform = p
	}
	slog.Debug("host platform", "os", m.platform.OS, "arch", m.platform.Arch, "distro", m.platform.DistroID, "release", m.platform.OSRelease)

	if m.defaults == nil {
		d := resolution.BuiltinDefaults().Overlay(resolution.Defaults{
			Versions:    cfg.Defaults,
			Linux:       cfg.LinuxDefaultTable(),
			LinuxDistro: cfg.LinuxDistro,
		})
		m.defaults = &d
	}
	m.resolver = resolution.NewResolver(m.defaults)

	if m.planner == nil {
		m.planner = m.plan
	}
	if m.probe == nil {
		m.probe = &artifact.HTTPProbe{Client: httpclient.Client(ctx)}
	}
	if m.toolsDir == "" {
		dataDir, err := envdriver.GetUserDataDir(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to locate tools directory: %w", err)
		}
		m.toolsDir = filepath.Join(dataDir, "tools")
	}
	if m.shimsDir == "" {
		m.shimsDir = filepath.Join(filepath.Dir(m.toolsDir), "shims")
	}
	if m.priority == 0 {
		m.priority = config.DefaultAlternativesPriority
	}
	if m.env == nil {
		env, err := envsink.New(ctx)
		if err != nil {
			return nil, err
		}
		m.env = env
	}
	return m, nil
}

// Platform returns the host the manager installs for.
func (m *Manager) Platform() platform.Info { return m.platform }

// Resolve returns the concrete version a request maps to on this host.
func (m *Manager) Resolve(tool, requested string) (string, error) {
	def, err := Lookup(tool)
	if err != nil {
		return "", err
	}
	return m.resolver.Resolve(resolution.VersionRequest{
		Tool:      def.Name,
		Requested: requested,
		Platform:  m.platform.OS,
		Distro:    m.platform.DistroID,
		OSRelease: m.platform.OSRelease,
	}), nil
}

// EnsureInstalled installs tool at the requested version for arch, once per
// process. Concurrent calls resolving to the same version share one install,
// failures included. An empty arch means the host architecture.
func (m *Manager) EnsureInstalled(ctx context.Context, tool, requested, arch string) (Installation, error) {
	def, err := Lookup(tool)
	if err != nil {
		return Installation{}, err
	}
	arch = platform.NormalizeArch(arch)
	if arch == "" {
		arch = m.platform.Arch
	}
	concrete, _ := m.Resolve(def.Name, requested)
	slog.Debug("resolved version", "tool", def.Name, "requested", requested, "version", concrete)

	key := installKey{tool: def.Name, version: concrete, arch: arch}
	inst, err := m.installs.Do(key, func() (Installation, error) {
		return m.install(ctx, def, requested, concrete, arch)
	})
	if err != nil {
		return Installation{}, err
	}
	inst.Requested = requested
	return inst, nil
}

func (m *Manager) install(ctx context.Context, def *Definition, requested, concrete, arch string) (Installation, error) {
	req := strategy.Request{Tool: def.Name, Version: concrete, Requested: requested, Arch: arch, Platform: m.platform}
	plan := m.planner(def, req)
	slog.Info("installing", "tool", def.Name, "version", displayVersion(concrete), "arch", arch)

	res, err := strategy.Install(ctx, req, plan...)
	if err != nil {
		return Installation{}, err
	}
	inst := Installation{
		Tool:      def.Name,
		Requested: requested,
		Version:   res.Version,
		Arch:      arch,
		BinDir:    res.BinDir,
		Strategy:  res.Strategy,
	}
	slog.Info("installed", "tool", inst.Tool, "version", displayVersion(inst.Version), "strategy", inst.Strategy, "bin", inst.BinDir)

	if m.recorder != nil {
		err := m.recorder.RecordInstall(ctx, db.Receipt{
			Tool:      inst.Tool,
			Requested: requested,
			Version:   inst.Version,
			Arch:      inst.Arch,
			Strategy:  inst.Strategy,
			BinDir:    inst.BinDir,
		})
		if err != nil {
			slog.Warn("failed to record install", "tool", inst.Tool, "error", err)
		}
	}
	return inst, nil
}

// plan is the default strategy order: native package manager, release archive, pip.
func (m *Manager) plan(def *Definition, req strategy.Request) []strategy.Strategy {
	var plan []strategy.Strategy
	if def.Packages != nil {
		plan = append(plan, &strategy.PackageManager{
			Packages:     def.Packages,
			Binary:       def.Binary,
			ResolveLinks: def.Role == RoleLLVM,
		})
	}
	if def.Locator != nil {
		plan = append(plan, &strategy.Archive{
			Locator:   def.Locator(m.probe),
			ToolsDir:  m.toolsDir,
			Checksums: m.checksums,
			Progress:  m.progress,
		})
	}
	if def.Pip != "" {
		plan = append(plan, &strategy.Pip{Package: def.Pip, Library: def.Library})
	}
	return plan
}

// Activate makes an installation usable: its bin dir goes on PATH and
// compilers are selected for tools with a role. Failures do not undo the
// changes already applied.
func (m *Manager) Activate(ctx context.Context, inst Installation) error {
	def, err := Lookup(inst.Tool)
	if err != nil {
		return err
	}
	target := m.platform
	if inst.Arch != "" {
		target.Arch = inst.Arch
	}
	a := &activate.Activator{
		Env:      m.env,
		Platform: target,
		ShimsDir: m.shimsDir,
		Priority: m.priority,
	}

	switch def.Role {
	case RoleLLVM:
		if inst.BinDir == "" {
			return fmt.Errorf("cannot activate %s without a bin dir", inst.Tool)
		}
		return a.ActivateLLVM(ctx, filepath.Dir(inst.BinDir))
	case RoleGCC:
		return a.ActivateGCC(ctx, inst.BinDir, inst.Version)
	}
	return a.AddPath(ctx, inst.BinDir)
}

// Versions lists the specific versions known for an archive backed tool, newest first.
func (m *Manager) Versions(tool string) ([]string, error) {
	def, err := Lookup(tool)
	if err != nil {
		return nil, err
	}
	if def.Locator == nil {
		return nil, fmt.Errorf("%s has no release archives", def.Name)
	}
	lister, ok := def.Locator(m.probe).(artifact.Lister)
	if !ok {
		return nil, fmt.Errorf("%s does not list versions", def.Name)
	}
	return lister.Versions(), nil
}

func displayVersion(v string) string {
	if v == "" {
		return resolution.SentinelDefault
	}
	return v
}
