// Package collection loads design token collections from YAML documents.
// Loading is lenient the way the analyzer is: a bad entry becomes a
// finding, not a failure, and the rest of the document still loads.
package collection

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rafters-design/tokengraph/pkg/store"
	"github.com/rafters-design/tokengraph/pkg/validation"
)

// Finding kinds reported by Build.
const (
	FindingInvalidEntry      = "invalid-entry"
	FindingDuplicateToken    = "duplicate-token"
	FindingRejectedRule      = "rejected-rule"
	FindingMissingDependency = "missing-dependency"
)

// Document is the on-disk shape of a token collection.
type Document struct {
	Name   string  `yaml:"name,omitempty"`
	Tokens []Token `yaml:"tokens"`
}

// Token is one collection entry.
type Token struct {
	Name         string   `yaml:"name" json:"name"`
	Value        string   `yaml:"value" json:"value"`
	Category     string   `yaml:"category,omitempty" json:"category,omitempty"`
	Rule         string   `yaml:"rule,omitempty" json:"rule,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// Finding reports one problem hit while loading a collection entry.
type Finding struct {
	Token   string `json:"token"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result is what loading produces: the populated registry plus per-entry
// findings for everything that did not load cleanly.
type Result struct {
	Registry *store.Registry
	Name     string
	Loaded   int
	Findings []Finding
}

// Parse decodes a YAML collection document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse collection: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and decodes a collection file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}
	return Parse(data)
}

// Load reads a collection file into a fresh registry.
func Load(path string) (*Result, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(doc, store.NewRegistry()), nil
}

// Build populates a registry from a document. Tokens are added first so
// rules can reference entries later in the file; rules attach in a second
// pass in document order.
func Build(doc *Document, reg *store.Registry) *Result {
	res := &Result{
		Registry: reg,
		Name:     doc.Name,
		Findings: []Finding{},
	}

	// Indexes of entries whose token was created by that entry; a duplicate
	// later in the file must not attach its rule over the original's.
	var ruleEntries []int

	for i, entry := range doc.Tokens {
		req := validation.TokenRequest{
			Name:         entry.Name,
			Value:        entry.Value,
			Category:     entry.Category,
			Rule:         entry.Rule,
			Dependencies: entry.Dependencies,
		}
		if err := validation.ValidateTokenRequest(&req); err != nil {
			res.Findings = append(res.Findings, Finding{
				Token:   entry.Name,
				Kind:    FindingInvalidEntry,
				Message: err.Error(),
			})
			continue
		}

		if _, err := reg.AddToken(entry.Name, entry.Value, entry.Category); err != nil {
			res.Findings = append(res.Findings, Finding{
				Token:   entry.Name,
				Kind:    FindingDuplicateToken,
				Message: err.Error(),
			})
			continue
		}
		res.Loaded++
		if strings.TrimSpace(entry.Rule) != "" {
			ruleEntries = append(ruleEntries, i)
		}
	}

	for _, i := range ruleEntries {
		entry := doc.Tokens[i]

		_, missing, err := reg.AddDependency(entry.Name, entry.Rule, entry.Dependencies...)
		if err != nil {
			res.Findings = append(res.Findings, Finding{
				Token:   entry.Name,
				Kind:    FindingRejectedRule,
				Message: err.Error(),
			})
			continue
		}
		if len(missing) > 0 {
			res.Findings = append(res.Findings, Finding{
				Token:   entry.Name,
				Kind:    FindingMissingDependency,
				Message: fmt.Sprintf("rule references tokens not in the collection: %s", strings.Join(missing, ", ")),
			})
		}
	}

	return res
}
