package boundary

import (
	"strings"

	"engineguard/internal/reftree"
	"engineguard/internal/shared/util"
)

// validate evaluates the layered policy in fixed precedence order and
// reports which protection tier rejected the access. The tier is only
// meaningful when valid is false.
func (a *Analyzer) validate(tree *reftree.Tree, idx int, file, current, accessed string) (bool, Tier) {
	// 1. Access within the owning engine is always allowed.
	if current == accessed {
		return true, TierStandard
	}

	// 2. Bilateral overrides beat every protection rule, including strong
	// protection in both directions.
	if overrides := a.policy.OverridesFor(current); overrides != nil {
		if overrides[accessed] {
			return true, TierStandard
		}
		for _, name := range a.candidateNames(tree, idx) {
			if overrides[name] {
				return true, TierStandard
			}
		}
	}

	// 3. A strongly protected current engine has no outbound access.
	if current != "" && a.policy.IsStronglyProtected(current) {
		return false, TierStrongOutbound
	}

	// 4. A strongly protected accessed engine has no inbound access.
	if a.policy.IsStronglyProtected(accessed) {
		return false, TierStrongInbound
	}

	// 5. Standard API validity.
	if a.inLegacyDependents(file, accessed) {
		return true, TierStandard
	}
	if a.throughApiNamespace(tree, idx) {
		return true, TierStandard
	}
	if a.allowlisted(tree, idx, accessed) {
		return true, TierStandard
	}
	return false, TierStandard
}

// candidateNames returns the reference's own fully qualified name plus its
// enclosing namespace paths, bounded by maxAncestorWalk, with leading
// separators stripped.
func (a *Analyzer) candidateNames(tree *reftree.Tree, idx int) []string {
	names := make([]string, 0, maxAncestorWalk+1)
	names = append(names, strings.TrimPrefix(tree.Nodes[idx].Name, "::"))
	for _, anc := range tree.Ancestors(idx, maxAncestorWalk) {
		names = append(names, strings.TrimPrefix(tree.Nodes[anc].Name, "::"))
	}
	return names
}

// throughApiNamespace reports whether the reference is routed through the
// engine's designated public namespace, i.e. its immediate parent is a
// namespace path whose last segment is the literal Api.
func (a *Analyzer) throughApiNamespace(tree *reftree.Tree, idx int) bool {
	parent := tree.Nodes[idx].Parent
	if parent < 0 || tree.Nodes[parent].Kind != reftree.KindConstant {
		return false
	}
	name := tree.Nodes[parent].Name
	return name == "Api" || strings.HasSuffix(name, "::Api")
}

// allowlisted reports whether the reference or any enclosing namespace path
// exactly matches an entry of the accessed engine's allow-list.
func (a *Analyzer) allowlisted(tree *reftree.Tree, idx int, accessed string) bool {
	entries := a.api.Allowlist(accessed)
	if len(entries) == 0 {
		return false
	}
	allowed := make(map[string]bool, len(entries))
	for _, entry := range entries {
		allowed[strings.TrimPrefix(strings.TrimSpace(entry), "::")] = true
	}
	for _, name := range a.candidateNames(tree, idx) {
		if allowed[name] {
			return true
		}
	}
	return false
}

// inLegacyDependents reports whether the current file is on the accessed
// engine's burn-down list. Matching is substring-based on the file path.
func (a *Analyzer) inLegacyDependents(file, accessed string) bool {
	path := util.NormalizePatternPath(file)
	for _, entry := range a.api.LegacyDependents(accessed) {
		if entry != "" && strings.Contains(path, entry) {
			return true
		}
	}
	return false
}
