package rubyparser

import (
	"testing"

	"engineguard/internal/reftree"
)

func parse(t *testing.T, source string) *reftree.Tree {
	t.Helper()
	tree, err := New().ParseFile("app/models/user.rb", []byte(source))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	return tree
}

func findNode(tree *reftree.Tree, name string) (reftree.Node, bool) {
	for _, n := range tree.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return reftree.Node{}, false
}

func TestConstantChain(t *testing.T) {
	tree := parse(t, "invoice = Billing::Api::Charge.new\n")

	full, ok := findNode(tree, "Billing::Api::Charge")
	if !ok {
		t.Fatalf("full path not extracted: %v", tree.Nodes)
	}
	if !full.CallReceiver {
		t.Error("full path is the call receiver")
	}

	base, ok := findNode(tree, "Billing")
	if !ok {
		t.Fatal("base constant not extracted")
	}
	if !base.IsBase() || base.CallReceiver {
		t.Errorf("unexpected base node: %+v", base)
	}
	if base.Parent < 0 || tree.Nodes[base.Parent].Name != "Billing::Api" {
		t.Errorf("base parent = %v", base.Parent)
	}
}

func TestDeclarationMarked(t *testing.T) {
	tree := parse(t, "module Billing\n  class Invoice\n  end\nend\n")

	billing, ok := findNode(tree, "Billing")
	if !ok || !billing.Declaration {
		t.Errorf("module name must be marked declaration: %+v", billing)
	}
	invoice, ok := findNode(tree, "Invoice")
	if !ok || !invoice.Declaration {
		t.Errorf("class name must be marked declaration: %+v", invoice)
	}
}

func TestSuperclassIsUse(t *testing.T) {
	tree := parse(t, "class Invoice < Billing::Record\nend\n")

	base, ok := findNode(tree, "Billing")
	if !ok {
		t.Fatal("superclass base constant not extracted")
	}
	if base.Declaration {
		t.Error("superclass reference is a use, not a declaration")
	}
}

func TestBareReceiverMarked(t *testing.T) {
	tree := parse(t, "total = Billing.total_for(user)\n")

	billing, ok := findNode(tree, "Billing")
	if !ok {
		t.Fatal("receiver constant not extracted")
	}
	if !billing.CallReceiver {
		t.Error("bare constant receiver must be marked")
	}
}

func TestAssociationLiteralString(t *testing.T) {
	tree := parse(t, "class User\n  has_many :invoices, class_name: \"Billing::Invoice\"\nend\n")

	var assoc *reftree.Node
	for i := range tree.Nodes {
		if tree.Nodes[i].Kind == reftree.KindAssociation {
			assoc = &tree.Nodes[i]
		}
	}
	if assoc == nil {
		t.Fatalf("association not extracted: %v", tree.Nodes)
	}
	if assoc.Name != "Billing::Invoice" || assoc.Relation != "has_many" {
		t.Errorf("unexpected association: %+v", assoc)
	}
	if assoc.Location.Line != 2 {
		t.Errorf("association location = %+v", assoc.Location)
	}
}

func TestAssociationNonLiteralSkipped(t *testing.T) {
	sources := []string{
		"has_many :invoices, class_name: name\n",
		"has_many :invoices, class_name: \"Billing::#{kind}\"\n",
		"has_many :invoices\n",
	}
	for _, source := range sources {
		tree := parse(t, source)
		for _, n := range tree.Nodes {
			if n.Kind == reftree.KindAssociation {
				t.Errorf("source %q produced association %+v", source, n)
			}
		}
	}
}

func TestAssociationConstantArgStillBareReference(t *testing.T) {
	tree := parse(t, "has_many :invoices, class_name: Billing::Invoice\n")

	if _, ok := findNode(tree, "Billing::Invoice"); !ok {
		t.Error("constant class_name must surface as a bare reference")
	}
	for _, n := range tree.Nodes {
		if n.Kind == reftree.KindAssociation {
			t.Errorf("constant class_name must not become an association node: %+v", n)
		}
	}
}

func TestCbaseAnchoredPath(t *testing.T) {
	tree := parse(t, "x = ::Billing::Invoice.find(1)\n")

	if _, ok := findNode(tree, "::Billing::Invoice"); !ok {
		t.Errorf("cbase path not extracted: %v", tree.Nodes)
	}
}

func TestHashRocketSymbolKey(t *testing.T) {
	tree := parse(t, "has_one :parcel, :class_name => \"Shipping::Parcel\"\n")

	found := false
	for _, n := range tree.Nodes {
		if n.Kind == reftree.KindAssociation && n.Name == "Shipping::Parcel" && n.Relation == "has_one" {
			found = true
		}
	}
	if !found {
		t.Errorf("hash-rocket class_name not extracted: %v", tree.Nodes)
	}
}
