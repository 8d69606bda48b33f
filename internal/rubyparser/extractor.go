package rubyparser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"engineguard/internal/reftree"
)

var associationKinds = map[string]bool{
	"belongs_to": true,
	"has_one":    true,
	"has_many":   true,
}

type extractor struct {
	tree   *reftree.Tree
	source []byte
}

func (ex *extractor) walk(node *sitter.Node) {
	switch node.Kind() {
	case "module", "class":
		name := node.ChildByFieldName("name")
		if name != nil {
			ex.addConstChain(name, -1, true, false)
		}
		ex.walkChildrenExcept(node, name)
		return

	case "constant", "scope_resolution":
		ex.addConstChain(node, -1, false, false)
		return

	case "call":
		receiver := node.ChildByFieldName("receiver")
		var skip *sitter.Node
		if receiver != nil {
			if isConstPath(receiver) {
				ex.addConstChain(receiver, -1, false, true)
				skip = receiver
			}
		} else if method := node.ChildByFieldName("method"); method != nil {
			if rel := method.Utf8Text(ex.source); associationKinds[rel] {
				if args := node.ChildByFieldName("arguments"); args != nil {
					ex.findClassName(args, rel)
				}
			}
		}
		ex.walkChildrenExcept(node, skip)
		return
	}

	ex.walkChildrenExcept(node, nil)
}

func (ex *extractor) walkChildrenExcept(node, skip *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if skip != nil && child.StartByte() == skip.StartByte() && child.EndByte() == skip.EndByte() {
			continue
		}
		ex.walk(child)
	}
}

// addConstChain records a constant path as arena nodes, the full path
// first, then each shorter enclosing form down to the base constant. The
// receiver flag applies only to the outermost node.
func (ex *extractor) addConstChain(node *sitter.Node, parent int, decl, receiver bool) {
	name := ex.constName(node)
	if name == "" {
		return
	}
	idx := ex.tree.Add(reftree.Node{
		Kind:         reftree.KindConstant,
		Name:         name,
		Declaration:  decl,
		CallReceiver: receiver,
		Parent:       parent,
		Location:     ex.loc(node),
	})
	if node.Kind() == "scope_resolution" {
		if scope := node.ChildByFieldName("scope"); scope != nil {
			ex.addConstChain(scope, idx, decl, false)
		}
	}
}

// constName resolves a constant or scope_resolution node to its fully
// qualified form. Paths anchored on a non-constant scope (foo.bar::Baz)
// yield "".
func (ex *extractor) constName(node *sitter.Node) string {
	switch node.Kind() {
	case "constant":
		return node.Utf8Text(ex.source)
	case "scope_resolution":
		nameChild := node.ChildByFieldName("name")
		if nameChild == nil {
			return ""
		}
		scope := node.ChildByFieldName("scope")
		if scope == nil {
			return "::" + nameChild.Utf8Text(ex.source)
		}
		scopeName := ex.constName(scope)
		if scopeName == "" {
			return ""
		}
		return scopeName + "::" + nameChild.Utf8Text(ex.source)
	}
	return ""
}

func isConstPath(node *sitter.Node) bool {
	kind := node.Kind()
	return kind == "constant" || kind == "scope_resolution"
}

// findClassName locates class_name keyword arguments within an association
// call's argument list. Only literal strings are recorded; constants and
// computed expressions are left for the bare-reference path.
func (ex *extractor) findClassName(node *sitter.Node, relation string) {
	if node.Kind() == "pair" {
		key := node.ChildByFieldName("key")
		value := node.ChildByFieldName("value")
		if key != nil && value != nil && pairKeyName(key, ex.source) == "class_name" {
			if content, ok := ex.literalString(value); ok {
				ex.tree.Add(reftree.Node{
					Kind:     reftree.KindAssociation,
					Name:     content,
					Relation: relation,
					Parent:   -1,
					Location: ex.loc(value),
				})
			}
		}
		return
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		ex.findClassName(node.NamedChild(i), relation)
	}
}

func pairKeyName(key *sitter.Node, source []byte) string {
	switch key.Kind() {
	case "hash_key_symbol":
		return key.Utf8Text(source)
	case "simple_symbol":
		return strings.TrimPrefix(key.Utf8Text(source), ":")
	}
	return ""
}

// literalString unwraps a plain string literal. Interpolated or otherwise
// computed strings are not literals.
func (ex *extractor) literalString(node *sitter.Node) (string, bool) {
	if node.Kind() != "string" || node.NamedChildCount() != 1 {
		return "", false
	}
	content := node.NamedChild(0)
	if content.Kind() != "string_content" {
		return "", false
	}
	return content.Utf8Text(ex.source), true
}

func (ex *extractor) loc(node *sitter.Node) reftree.Location {
	return reftree.Location{
		File:   ex.tree.Path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}
