// Package topology reads and writes system graph definitions as YAML.
//
// A topology document names nodes and the directed edges between them. It is
// a definition format: loading one builds a fresh graph, it never restores
// simulation progress.
package topology

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/models"
	"github.com/nvandessel/archsim/internal/sanitize"
)

// Defaults for optional document fields.
const (
	DefaultHealth      = 100.0
	DefaultReliability = 1.0
	DefaultBandwidth   = 1000.0
	DefaultNodeType    = "service"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid topology")

var validate = validator.New()

// Document is the YAML form of a system graph.
type Document struct {
	Name         string    `json:"name" yaml:"name" validate:"required,max=100"`
	Architecture string    `json:"architecture,omitempty" yaml:"architecture,omitempty"`
	Nodes        []NodeDoc `json:"nodes" yaml:"nodes" validate:"required,min=1,dive"`
	Edges        []EdgeDoc `json:"edges,omitempty" yaml:"edges,omitempty" validate:"dive"`
}

// NodeDoc describes one node. Pointer fields are optional and take the
// package defaults when omitted.
type NodeDoc struct {
	Name          string               `json:"name" yaml:"name" validate:"required,max=100"`
	Type          string               `json:"type,omitempty" yaml:"type,omitempty" validate:"max=50"`
	Health        *float64             `json:"health,omitempty" yaml:"health,omitempty" validate:"omitempty,gte=0,lte=100"`
	TechDebt      float64              `json:"tech_debt" yaml:"tech_debt" validate:"gte=0,lte=100"`
	Complexity    uint32               `json:"complexity" yaml:"complexity"`
	ContagionRisk float64              `json:"contagion_risk" yaml:"contagion_risk" validate:"gte=0,lte=1"`
	OperatingCost float64              `json:"operating_cost" yaml:"operating_cost" validate:"gte=0"`
	DefectRate    float64              `json:"defect_rate" yaml:"defect_rate" validate:"gte=0,lte=1"`
	CriticalPath  bool                 `json:"critical_path,omitempty" yaml:"critical_path,omitempty"`
	Attributes    []string             `json:"attributes,omitempty" yaml:"attributes,omitempty" validate:"max=20,dive,max=100"`
	Latency       *models.Distribution `json:"latency,omitempty" yaml:"latency,omitempty"`
	FailureRate   *models.Distribution `json:"failure_rate,omitempty" yaml:"failure_rate,omitempty"`
}

// EdgeDoc describes one directed edge between two named nodes.
type EdgeDoc struct {
	From           string               `json:"from" yaml:"from" validate:"required"`
	To             string               `json:"to" yaml:"to" validate:"required"`
	Name           string               `json:"name,omitempty" yaml:"name,omitempty"`
	Reliability    *float64             `json:"reliability,omitempty" yaml:"reliability,omitempty" validate:"omitempty,gte=0,lte=1"`
	Bandwidth      *float64             `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty" validate:"omitempty,gt=0"`
	TechDebtSpread float64              `json:"tech_debt_spread" yaml:"tech_debt_spread" validate:"gte=0,lte=1"`
	Latency        *models.Distribution `json:"latency,omitempty" yaml:"latency,omitempty"`
	FailureRate    *models.Distribution `json:"failure_rate,omitempty" yaml:"failure_rate,omitempty"`
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and validates a YAML document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks field ranges, duplicate node names and edge endpoints.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil document", ErrInvalid)
	}
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}

	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if seen[n.Name] {
			return fmt.Errorf("%w: duplicate node %q", ErrInvalid, n.Name)
		}
		seen[n.Name] = true
	}
	for i, e := range d.Edges {
		if !seen[e.From] {
			return fmt.Errorf("%w: edge %d: unknown source %q", ErrInvalid, i, e.From)
		}
		if !seen[e.To] {
			return fmt.Errorf("%w: edge %d: unknown target %q", ErrInvalid, i, e.To)
		}
	}
	return nil
}

// Build converts a validated document into a new graph.
func (d *Document) Build() (*graph.SystemGraph, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	g := graph.New()
	for _, nd := range d.Nodes {
		if _, err := g.AddNodeUnique(nd.toNode()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	for _, ed := range d.Edges {
		if err := g.AddEdge(ed.From, ed.To, ed.toEdge()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return g, nil
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// FromGraph exports g as a document. Every optional field is written out.
func FromGraph(name string, g *graph.SystemGraph) *Document {
	doc := &Document{Name: name}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeDoc{
			Name:          n.Name,
			Type:          n.NodeType,
			Health:        ptr(n.Health),
			TechDebt:      n.TechDebt,
			Complexity:    n.Complexity,
			ContagionRisk: n.ContagionRisk,
			OperatingCost: n.OperatingCost,
			DefectRate:    n.DefectRate,
			CriticalPath:  n.CriticalPath,
			Attributes:    n.Attributes,
			Latency:       ptr(n.Latency),
			FailureRate:   ptr(n.FailureRate),
		})
	}
	for _, a := range g.Arcs() {
		doc.Edges = append(doc.Edges, EdgeDoc{
			From:           g.Name(a.From),
			To:             g.Name(a.To),
			Name:           a.Edge.Name,
			Reliability:    ptr(a.Edge.Reliability),
			Bandwidth:      ptr(a.Edge.Bandwidth),
			TechDebtSpread: a.Edge.TechDebtSpread,
			Latency:        ptr(a.Edge.Latency),
			FailureRate:    ptr(a.Edge.FailureRate),
		})
	}
	return doc
}

func (nd NodeDoc) toNode() models.Node {
	n := models.Node{
		Name:          nd.Name,
		NodeType:      nd.Type,
		Health:        DefaultHealth,
		TechDebt:      nd.TechDebt,
		Complexity:    nd.Complexity,
		ContagionRisk: nd.ContagionRisk,
		OperatingCost: nd.OperatingCost,
		DefectRate:    nd.DefectRate,
		CriticalPath:  nd.CriticalPath,
		Attributes:    append([]string(nil), nd.Attributes...),
	}
	if n.NodeType == "" {
		n.NodeType = DefaultNodeType
	}
	if nd.Health != nil {
		n.Health = *nd.Health
	}
	if nd.Latency != nil {
		n.Latency = *nd.Latency
	}
	if nd.FailureRate != nil {
		n.FailureRate = *nd.FailureRate
	}
	return n
}

func (ed EdgeDoc) toEdge() models.Edge {
	e := models.Edge{
		Name:           sanitize.Label(ed.Name),
		Reliability:    DefaultReliability,
		Bandwidth:      DefaultBandwidth,
		TechDebtSpread: ed.TechDebtSpread,
	}
	if e.Name == "" {
		e.Name = ed.From + "->" + ed.To
	}
	if ed.Reliability != nil {
		e.Reliability = *ed.Reliability
	}
	if ed.Bandwidth != nil {
		e.Bandwidth = *ed.Bandwidth
	}
	if ed.Latency != nil {
		e.Latency = *ed.Latency
	}
	if ed.FailureRate != nil {
		e.FailureRate = *ed.FailureRate
	}
	return e
}

// formatValidationError reports the first failing field in a readable form.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	e := verrs[0]
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%w: %s: field is required", ErrInvalid, field)
	case "min", "gte":
		return fmt.Errorf("%w: %s: must be at least %s", ErrInvalid, field, e.Param())
	case "max", "lte":
		return fmt.Errorf("%w: %s: must not exceed %s", ErrInvalid, field, e.Param())
	case "gt":
		return fmt.Errorf("%w: %s: must be greater than %s", ErrInvalid, field, e.Param())
	default:
		return fmt.Errorf("%w: %s: validation failed (%s)", ErrInvalid, field, e.Tag())
	}
}

func ptr[T any](v T) *T {
	return &v
}
