package boundary

import (
	"context"
	"strings"
	"time"

	"engineguard/internal/apimeta"
	"engineguard/internal/oracle"
	"engineguard/internal/policy"
	"engineguard/internal/reftree"
	"engineguard/internal/shared/observability"
)

// mainAppNamespace is the reserved namespace for non-engine application
// code; strongly protected engines may not reach into it.
const mainAppNamespace = "MainApp::EngineApi"

// maxAncestorWalk bounds every namespace-chain walk. Nesting deeper than
// this is treated as "no match found".
const maxAncestorWalk = 5

// Analyzer runs the boundary rules over the reference trees of parsed
// files. It is cheap to reuse across files within a run: the policy store,
// the API metadata cache and the oracle memo are all shared.
type Analyzer struct {
	policy *policy.Store
	api    *apimeta.Reader
	oracle oracle.Oracle
}

func NewAnalyzer(store *policy.Store, api *apimeta.Reader, o oracle.Oracle) *Analyzer {
	if o == nil {
		o = oracle.All{}
	}
	return &Analyzer{policy: store, api: api, oracle: o}
}

// AnalyzeTree walks one file's reference tree and returns its boundary
// violations.
func (a *Analyzer) AnalyzeTree(ctx context.Context, tree *reftree.Tree) []Violation {
	start := time.Now()
	defer func() {
		observability.FilesAnalyzed.Inc()
		observability.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	current := a.policy.CurrentEngine(tree.Path)

	var violations []Violation
	for i := range tree.Nodes {
		node := &tree.Nodes[i]

		var engine string
		var ok bool
		switch node.Kind {
		case reftree.KindConstant:
			engine, ok = a.classify(ctx, tree, i, current)
		case reftree.KindAssociation:
			engine, ok = a.classifyAssociation(node)
		}
		if !ok {
			continue
		}

		if valid, tier := a.validate(tree, i, tree.Path, current, engine); !valid {
			v := newViolation(engine, current, tier, node.Location)
			violations = append(violations, v)
			observability.ViolationsTotal.WithLabelValues(tier.String()).Inc()
		}
	}
	return violations
}

// classify decides whether a constant node denotes access into a protected
// engine at all. It fires on the base segment of each constant path, skips
// declaration names and engine-named value objects used as call receivers,
// and gates bare references on the persistence oracle.
func (a *Analyzer) classify(ctx context.Context, tree *reftree.Tree, idx int, current string) (string, bool) {
	node := tree.Nodes[idx]
	if !node.IsBase() || node.Declaration || node.CallReceiver {
		return "", false
	}

	full := strings.TrimPrefix(tree.Nodes[tree.Outermost(idx, maxAncestorWalk)].Name, "::")

	// Strongly protected engines may not reach into main application code
	// either; that access is always a violation target, bypassing the
	// persistence gate.
	if current != "" && a.policy.IsStronglyProtected(current) {
		if full == mainAppNamespace || strings.HasPrefix(full, mainAppNamespace+"::") {
			return mainAppNamespace, true
		}
	}

	base := strings.TrimPrefix(node.Name, "::")
	if !a.policy.ProtectedEngines()[base] {
		return "", false
	}

	// Only persistence-backed symbols are subject to bare-constant checks;
	// plain module/service access is assumed intentional API surface.
	if !a.oracle.IsPersistenceModel(ctx, full) {
		return "", false
	}
	return base, true
}

// classifyAssociation treats a relationship declaration whose class_name
// names another engine's namespace as a reference to that engine. The
// persistence gate does not apply: associations are model-to-model by
// construction.
func (a *Analyzer) classifyAssociation(node *reftree.Node) (string, bool) {
	name := strings.TrimPrefix(node.Name, "::")
	segment, _, _ := strings.Cut(name, "::")
	if segment == "" || !a.policy.ProtectedEngines()[segment] {
		return "", false
	}
	return segment, true
}
