package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"engineguard/internal/apimeta"
	"engineguard/internal/boundary"
	"engineguard/internal/config"
	"engineguard/internal/history"
	"engineguard/internal/oracle"
	"engineguard/internal/policy"
	"engineguard/internal/report"
	"engineguard/internal/rubyparser"
	"engineguard/internal/scan"
	"engineguard/internal/shared/observability"
	"engineguard/internal/shared/util"
	"engineguard/internal/watch"
)

type App struct {
	Config   *config.Config
	policy   *policy.Store
	api      *apimeta.Reader
	analyzer *boundary.Analyzer
	parser   *rubyparser.Parser
	history  *history.Store
	metrics  *observability.Server
	watcher  *watch.Watcher

	projectRoot string

	// Cached per-file results so watch mode only re-analyzes what changed.
	mu               sync.Mutex
	violationsByFile map[string][]boundary.Violation
	fileCount        int
}

func NewApp(cfg *config.Config) (*App, error) {
	overrides := make([]policy.Override, 0, len(cfg.Engines.Overrides))
	for _, o := range cfg.Engines.Overrides {
		overrides = append(overrides, policy.Override{
			Engine:         o.Engine,
			AllowedModules: o.AllowedModules,
		})
	}
	store := policy.NewStore(policy.Config{
		EnginesRoot:       cfg.Engines.Path,
		Unprotected:       cfg.Engines.Unprotected,
		StronglyProtected: cfg.Engines.StronglyProtected,
		Overrides:         overrides,
	})

	var o oracle.Oracle = oracle.All{}
	if cfg.Oracle.Enabled {
		o = oracle.Memoize(oracle.NewExecOracle(cfg.Oracle.Command, cfg.Oracle.Timeout, cfg.Oracle.Rate, cfg.Oracle.Burst))
	}

	api := apimeta.NewReader(cfg.Engines.Path, store)

	app := &App{
		Config:           cfg,
		policy:           store,
		api:              api,
		analyzer:         boundary.NewAnalyzer(store, api, o),
		parser:           rubyparser.New(),
		violationsByFile: make(map[string][]boundary.Violation),
	}

	if cwd, err := os.Getwd(); err == nil {
		app.projectRoot = cwd
	}

	if cfg.DB.Enabled {
		h, err := history.Open(cfg.DB.Path)
		if err != nil {
			return nil, err
		}
		app.history = h
	}

	if cfg.Metrics.Addr != "" {
		app.metrics = observability.NewServer(cfg.Metrics.Addr)
		if err := app.metrics.Start(); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// RunScan walks the configured roots, analyzes every Ruby file and emits
// the configured outputs. The returned slice holds all current violations.
func (a *App) RunScan() ([]boundary.Violation, error) {
	start := time.Now()

	files, err := scan.RubyFiles(a.Config.Scan.Roots, a.Config.Scan.Exclude.Dirs, a.Config.Scan.Exclude.Files)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.violationsByFile = make(map[string][]boundary.Violation, len(files))
	a.mu.Unlock()

	slog.Debug("protected engines", "engines", util.SortedStringKeys(a.policy.ProtectedEngines()))

	ctx := context.Background()
	for _, path := range files {
		a.processFile(ctx, path)
	}

	a.mu.Lock()
	a.fileCount = len(files)
	a.mu.Unlock()

	violations := a.aggregate()
	slog.Info("scan complete",
		"files", len(files),
		"violations", len(violations),
		"duration", time.Since(start).Round(time.Millisecond))

	if err := a.generateOutputs(violations); err != nil {
		return violations, err
	}
	a.recordSnapshot(len(files), violations)
	return violations, nil
}

func (a *App) processFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read file", "path", path, "error", err)
		return
	}

	tree, err := a.parser.ParseFile(path, content)
	if err != nil {
		observability.ParseErrors.Inc()
		slog.Warn("failed to parse file", "path", path, "error", err)
		return
	}

	violations := a.analyzer.AnalyzeTree(ctx, tree)

	a.mu.Lock()
	if len(violations) > 0 {
		a.violationsByFile[path] = violations
	} else {
		delete(a.violationsByFile, path)
	}
	a.mu.Unlock()
}

// HandleChanges re-analyzes the changed files. Edits under an engine's api
// directory change policy for every file, so those trigger a full rescan.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))

	for _, path := range paths {
		if a.isPolicyFile(path) {
			if _, err := a.RunScan(); err != nil {
				slog.Error("rescan failed", "error", err)
			}
			return
		}
	}

	ctx := context.Background()
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.mu.Lock()
			delete(a.violationsByFile, path)
			a.mu.Unlock()
			continue
		}
		a.processFile(ctx, path)
	}

	violations := a.aggregate()
	if err := a.generateOutputs(violations); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}
	a.mu.Lock()
	fileCount := a.fileCount
	a.mu.Unlock()
	a.recordSnapshot(fileCount, violations)
}

func (a *App) isPolicyFile(path string) bool {
	root, err := filepath.Abs(a.Config.Engines.Path)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if !util.HasPathPrefix(abs, root) {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return len(parts) >= 2 && parts[1] == "api"
}

func (a *App) aggregate() []boundary.Violation {
	a.mu.Lock()
	defer a.mu.Unlock()

	var all []boundary.Violation
	for _, vs := range a.violationsByFile {
		all = append(all, vs...)
	}
	sort.Slice(all, func(i, j int) bool {
		x, y := all[i].Location, all[j].Location
		if x.File != y.File {
			return x.File < y.File
		}
		if x.Line != y.Line {
			return x.Line < y.Line
		}
		return x.Column < y.Column
	})
	return all
}

func (a *App) generateOutputs(violations []boundary.Violation) error {
	if err := report.WriteText(os.Stdout, a.projectRoot, violations); err != nil {
		return err
	}

	if a.Config.Output.SARIF != "" {
		data, err := report.GenerateSARIF(a.projectRoot, violations)
		if err != nil {
			return fmt.Errorf("generate sarif: %w", err)
		}
		if err := util.WriteFileWithDirs(a.Config.Output.SARIF, data, 0o644); err != nil {
			return fmt.Errorf("write sarif report: %w", err)
		}
	}
	return nil
}

func (a *App) recordSnapshot(fileCount int, violations []boundary.Violation) {
	if a.history == nil {
		return
	}

	snapshot := history.Snapshot{
		Timestamp:   time.Now().UTC(),
		FileCount:   fileCount,
		EngineCount: len(a.policy.ProtectedEngines()),
		APIChecksum: a.api.Checksum(),
	}
	snapshot.CommitHash, snapshot.CommitTimestamp = history.ResolveGitMetadata(a.projectRoot)

	for _, v := range violations {
		snapshot.ViolationCount++
		switch v.Tier {
		case boundary.TierStandard:
			snapshot.StandardCount++
		case boundary.TierStrongInbound:
			snapshot.StrongInboundCount++
		case boundary.TierStrongOutbound:
			snapshot.StrongOutboundCount++
		}
	}

	if err := a.history.SaveSnapshot(filepath.Base(a.projectRoot), snapshot); err != nil {
		slog.Warn("failed to record snapshot", "error", err)
	}
}

func (a *App) StartWatcher() error {
	w, err := watch.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Scan.Exclude.Dirs,
		a.Config.Scan.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}

	roots := make([]string, 0, len(a.Config.Scan.Roots)+1)
	seen := make(map[string]bool)
	for _, root := range append(append([]string(nil), a.Config.Scan.Roots...), a.Config.Engines.Path) {
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = root
		}
		if !seen[abs] {
			seen[abs] = true
			roots = append(roots, abs)
		}
	}

	if err := w.Watch(roots); err != nil {
		_ = w.Close()
		return err
	}
	a.watcher = w
	slog.Info("watching for changes", "roots", roots, "debounce", a.Config.Watch.Debounce)
	return nil
}

func (a *App) Close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.metrics.Stop(ctx)
		cancel()
	}
	if a.history != nil {
		_ = a.history.Close()
	}
}
