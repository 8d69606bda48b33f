package rubyparser

import (
	"errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"engineguard/internal/reftree"
)

// Parser turns Ruby source into the analyzer's arena reference tree. Only
// the constructs the boundary rules inspect are extracted: constant paths
// with their nesting, declaration names, call receivers and association
// declarations with a literal class_name.
type Parser struct {
	lang *sitter.Language
}

func New() *Parser {
	return &Parser{lang: sitter.NewLanguage(tree_sitter_ruby.Language())}
}

func (p *Parser) ParseFile(path string, content []byte) (*reftree.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	tsTree := parser.Parse(content, nil)
	if tsTree == nil {
		return nil, errors.New("parse failed")
	}
	defer tsTree.Close()

	ex := &extractor{
		tree:   &reftree.Tree{Path: path},
		source: content,
	}
	ex.walk(tsTree.RootNode())
	return ex.tree, nil
}
