package mcp

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/pathutil"
	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/nvandessel/archsim/internal/topology"
)

// economy is the starting point every reset returns to.
type economy struct {
	money      float64
	reputation float64
}

// session is one graph with its economy and driver. Callers hold Server.mu.
type session struct {
	name      string
	arch      archetype.ArchitectureType
	graph     *graph.SystemGraph
	resources simulation.Resources
	driver    *simulation.Driver
}

// newSession builds a running session from an archetype, or from a topology
// file when path is non-empty. Topology paths must stay inside the project
// root or ~/.archsim/topologies.
func (s *Server) newSession(arch archetype.ArchitectureType, path string) (*session, error) {
	sess := &session{name: arch.Slug(), arch: arch}

	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.root, path)
		}
		allowed, err := pathutil.AllowedTopologyDirs(s.root)
		if err != nil {
			return nil, err
		}
		if err := pathutil.ValidatePath(path, allowed); err != nil {
			return nil, err
		}
		doc, err := topology.Load(path)
		if err != nil {
			return nil, err
		}
		g, err := doc.Build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pathutil.RedactPath(path), err)
		}
		if doc.Architecture != "" {
			if a, err := archetype.Parse(doc.Architecture); err == nil {
				sess.arch = a
			}
		}
		sess.name = doc.Name
		sess.graph = g
	} else {
		sess.graph = archetype.Build(arch)
	}

	sess.resources = simulation.DefaultResources()
	sess.resources.Architecture = sess.arch
	if s.economy.money > 0 {
		sess.resources.Money = s.economy.money
	}
	if s.economy.reputation > 0 {
		sess.resources.Reputation = s.economy.reputation
	}

	sess.driver = simulation.NewDriver(
		simulation.WithLogger(s.logger),
		simulation.WithMetrics(s.metrics),
		simulation.WithTrace(s.trace),
	)
	sess.driver.Observe(sess.graphs(), &sess.resources)
	return sess, nil
}

func (sess *session) graphs() []*graph.SystemGraph {
	return []*graph.SystemGraph{sess.graph}
}
