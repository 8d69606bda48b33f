package policy

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config is the boundary policy as loaded from configuration. Engine names
// may be given in snake_case or PascalCase; all comparisons happen on the
// normalized form.
type Config struct {
	EnginesRoot       string
	Unprotected       []string
	StronglyProtected []string
	Overrides         []Override
}

type Override struct {
	Engine         string
	AllowedModules []string
}

// Store answers policy questions for the duration of one run. The engines
// root is listed once, lazily; a missing or unreadable root degrades to an
// empty engine set rather than an error.
type Store struct {
	cfg Config

	mu         sync.Mutex
	discovered bool
	protected  map[string]bool
	engineDirs map[string]string // normalized name -> directory name
	strong     map[string]bool
	overrides  map[string]map[string]bool
}

func NewStore(cfg Config) *Store {
	s := &Store{
		cfg:       cfg,
		strong:    make(map[string]bool, len(cfg.StronglyProtected)),
		overrides: make(map[string]map[string]bool, len(cfg.Overrides)),
	}
	for _, name := range cfg.StronglyProtected {
		s.strong[Normalize(name)] = true
	}
	for _, o := range cfg.Overrides {
		allowed := make(map[string]bool, len(o.AllowedModules))
		for _, mod := range o.AllowedModules {
			allowed[strings.TrimPrefix(strings.TrimSpace(mod), "::")] = true
		}
		s.overrides[Normalize(o.Engine)] = allowed
	}
	return s
}

// ProtectedEngines returns the normalized names of all engines subject to
// boundary checks: every directory under the engines root minus the
// configured unprotected set.
func (s *Store) ProtectedEngines() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoverLocked()
	return s.protected
}

// EngineDir maps a normalized engine name back to its directory name under
// the engines root.
func (s *Store) EngineDir(engine string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoverLocked()
	dir, ok := s.engineDirs[Normalize(engine)]
	return dir, ok
}

func (s *Store) IsStronglyProtected(engine string) bool {
	return s.strong[Normalize(engine)]
}

// OverridesFor returns the set of fully qualified module names the engine
// may access directly, or nil when no override relation exists.
func (s *Store) OverridesFor(engine string) map[string]bool {
	return s.overrides[Normalize(engine)]
}

// CurrentEngine derives the owning engine of a file from its path: the
// first path segment under the engines root, normalized. Files outside the
// root belong to the main application and yield "".
func (s *Store) CurrentEngine(path string) string {
	rel, err := filepath.Rel(s.cfg.EnginesRoot, path)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
		return ""
	}
	segment, rest, found := strings.Cut(rel, "/")
	if !found || rest == "" {
		// A file directly under the root is not owned by any engine.
		return ""
	}
	return Normalize(segment)
}

func (s *Store) discoverLocked() {
	if s.discovered {
		return
	}
	s.discovered = true
	s.protected = make(map[string]bool)
	s.engineDirs = make(map[string]string)

	entries, err := os.ReadDir(s.cfg.EnginesRoot)
	if err != nil {
		slog.Debug("engines root not readable, assuming no engines", "path", s.cfg.EnginesRoot, "error", err)
		return
	}

	unprotected := make(map[string]bool, len(s.cfg.Unprotected))
	for _, name := range s.cfg.Unprotected {
		unprotected[Normalize(name)] = true
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := Normalize(entry.Name())
		s.engineDirs[name] = entry.Name()
		if !unprotected[name] {
			s.protected[name] = true
		}
	}
}

// Normalize converts an engine identifier to its canonical PascalCase form:
// billing_ops and BillingOps both normalize to BillingOps.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
