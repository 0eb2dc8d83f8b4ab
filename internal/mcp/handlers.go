package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/archsim/internal/archetype"
	"github.com/nvandessel/archsim/internal/constants"
	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/models"
	"github.com/nvandessel/archsim/internal/ratelimit"
	"github.com/nvandessel/archsim/internal/sanitize"
	"github.com/nvandessel/archsim/internal/simulation"
	"github.com/nvandessel/archsim/internal/topology"
)

const (
	// MaxTicksPerCall bounds archsim_tick so one call cannot stall the server.
	MaxTicksPerCall = 10000

	defaultConnectSpread = 0.1
	statusResourceURI    = "archsim://status"
)

// registerTools registers all archsim MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "archsim_status",
		Description: "Show the simulated system: money, reputation, graph aggregates and optionally per-node health and tech debt",
	}, s.handleStatus)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "archsim_tick",
		Description: "Advance the simulation: health decay, operating cost, reputation penalties and continuous tech debt spread",
	}, s.handleTick)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "archsim_spread",
		Description: "Run one discrete tech debt contagion step across every edge",
	}, s.handleSpread)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "archsim_defects",
		Description: "Generate this tick's defects per node from defect rate, tech debt and complexity (read-only)",
	}, s.handleDefects)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "archsim_reset",
		Description: "Start over with a canned architecture (monolith, microservices, event-driven) or a YAML topology file",
	}, s.handleReset)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "archsim_connect",
		Description: "Add a directed dependency edge between two nodes by name",
	}, s.handleConnect)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         statusResourceURI,
		Name:        "archsim-status",
		Description: "Current state of the simulated system as a markdown table.",
		MIMEType:    "text/markdown",
	}, s.handleStatusResource)
}

// handleStatusResource renders the session as markdown.
func (s *Server) handleStatusResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	sum := sess.graph.Summarize()

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", sess.name)
	fmt.Fprintf(&sb, "Phase: %s, tick %d. Money %.2f, reputation %.2f.\n\n",
		sess.driver.Phase(), sess.driver.Ticks(), sess.resources.Money, sess.resources.Reputation)
	fmt.Fprintf(&sb, "Nodes %d, edges %d, total complexity %d, average tech debt %.2f.\n\n",
		sum.Nodes, sum.Edges, sum.TotalComplexity, sum.AverageTechDebt)
	sb.WriteString("| node | type | health | tech debt | critical |\n|---|---|---|---|---|\n")
	for _, n := range sess.graph.Nodes() {
		fmt.Fprintf(&sb, "| %s | %s | %.1f | %.1f | %t |\n", n.Name, n.NodeType, n.Health, n.TechDebt, n.CriticalPath)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      statusResourceURI,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

// handleStatus implements the archsim_status tool.
func (s *Server) handleStatus(ctx context.Context, req *sdk.CallToolRequest, args StatusInput) (_ *sdk.CallToolResult, _ StatusOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("archsim_status", start, retErr, sanitizeToolParams(map[string]interface{}{
			"nodes": args.Nodes,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "archsim_status"); err != nil {
		return nil, StatusOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	out := StatusOutput{
		Architecture: sess.name,
		Phase:        sess.driver.Phase().String(),
		Tick:         sess.driver.Ticks(),
		Money:        sess.resources.Money,
		Reputation:   sess.resources.Reputation,
		Summary:      sess.graph.Summarize(),
	}
	if args.Nodes {
		for _, n := range sess.graph.Nodes() {
			out.Nodes = append(out.Nodes, NodeStatus{
				Name:          n.Name,
				Type:          n.NodeType,
				Health:        n.Health,
				TechDebt:      n.TechDebt,
				Complexity:    n.Complexity,
				OperatingCost: n.OperatingCost,
				CriticalPath:  n.CriticalPath,
			})
		}
	}
	return nil, out, nil
}

// handleTick implements the archsim_tick tool.
func (s *Server) handleTick(ctx context.Context, req *sdk.CallToolRequest, args TickInput) (_ *sdk.CallToolResult, _ TickOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("archsim_tick", start, retErr, sanitizeToolParams(map[string]interface{}{
			"ticks": args.Ticks, "delta": args.Delta, "spread_every": args.SpreadEvery,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "archsim_tick"); err != nil {
		return nil, TickOutput{}, err
	}

	ticks := args.Ticks
	if ticks == 0 {
		ticks = 1
	}
	if ticks < 0 || ticks > MaxTicksPerCall {
		return nil, TickOutput{}, fmt.Errorf("ticks must be in [1, %d], got %d", MaxTicksPerCall, ticks)
	}
	delta := args.Delta
	if delta == 0 {
		delta = constants.DefaultTickDelta
	}
	if delta < 0 {
		return nil, TickOutput{}, fmt.Errorf("delta must be positive, got %g", delta)
	}
	if args.SpreadEvery < 0 {
		return nil, TickOutput{}, fmt.Errorf("spread_every must be non-negative, got %d", args.SpreadEvery)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	runner := simulation.NewRunner(sess.graphs(), sess.resources, sess.driver, s.logger)

	var out TickOutput
	for i := 1; i <= ticks; i++ {
		if err := ctx.Err(); err != nil {
			sess.resources = runner.Resources()
			return nil, TickOutput{}, err
		}
		spread := args.SpreadEvery > 0 && i%args.SpreadEvery == 0
		step := runner.Step(delta, spread)
		if step.Tick.Skipped {
			out.Skipped++
			continue
		}
		out.Ticks++
		out.OperatingCost += step.Tick.OperatingCost
		out.DebtSpread += step.Tick.DebtSpread
		out.Defects += step.Defects
		if step.Contagion != nil {
			out.ContagionSteps++
		}
	}
	sess.resources = runner.Resources()

	out.Money = sess.resources.Money
	out.Reputation = sess.resources.Reputation
	out.Summary = sess.graph.Summarize()
	return nil, out, nil
}

// handleSpread implements the archsim_spread tool.
func (s *Server) handleSpread(ctx context.Context, req *sdk.CallToolRequest, args SpreadInput) (_ *sdk.CallToolResult, _ SpreadOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("archsim_spread", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "archsim_spread"); err != nil {
		return nil, SpreadOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	if sess.driver.Phase() != simulation.PhaseRunning {
		return nil, SpreadOutput{Changes: []graph.DebtChange{}, Message: "session is " + sess.driver.Phase().String() + ", nothing spread"}, nil
	}

	changes := []graph.DebtChange{}
	for _, r := range sess.driver.Spread(sess.graphs()) {
		changes = append(changes, r.Changes...)
	}
	return nil, SpreadOutput{
		Changes: changes,
		Count:   len(changes),
		Message: fmt.Sprintf("Contagion step changed tech debt on %d node(s)", len(changes)),
	}, nil
}

// handleDefects implements the archsim_defects tool.
func (s *Server) handleDefects(ctx context.Context, req *sdk.CallToolRequest, args DefectsInput) (_ *sdk.CallToolResult, _ DefectsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("archsim_defects", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "archsim_defects"); err != nil {
		return nil, DefectsOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := DefectsOutput{Defects: []graph.Defect{}}
	for _, r := range s.session.driver.Defects(s.session.graphs()) {
		out.Defects = append(out.Defects, r.Defects...)
		out.Total += r.Total
	}
	return nil, out, nil
}

// handleReset implements the archsim_reset tool.
func (s *Server) handleReset(ctx context.Context, req *sdk.CallToolRequest, args ResetInput) (_ *sdk.CallToolResult, _ ResetOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("archsim_reset", start, retErr, sanitizeToolParams(map[string]interface{}{
			"architecture": args.Architecture, "topology": args.Topology, "phase": args.Phase,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "archsim_reset"); err != nil {
		return nil, ResetOutput{}, err
	}

	phase := simulation.PhaseRunning
	if args.Phase != "" {
		p, err := simulation.ParsePhase(args.Phase)
		if err != nil {
			return nil, ResetOutput{}, err
		}
		phase = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	arch := s.session.arch
	if args.Architecture != "" {
		a, err := archetype.Parse(args.Architecture)
		if err != nil {
			return nil, ResetOutput{}, err
		}
		arch = a
	}

	sess, err := s.newSession(arch, args.Topology)
	if err != nil {
		return nil, ResetOutput{}, fmt.Errorf("failed to reset: %w", err)
	}
	sess.driver.SetPhase(phase)
	s.session = sess
	s.logger.Info("session reset", "architecture", sess.name, "phase", phase)

	return nil, ResetOutput{
		Architecture: sess.name,
		Nodes:        sess.graph.NodeCount(),
		Edges:        sess.graph.EdgeCount(),
		Phase:        phase.String(),
		Money:        sess.resources.Money,
		Reputation:   sess.resources.Reputation,
		Message:      fmt.Sprintf("Reset to %s with %d nodes and %d edges", sess.name, sess.graph.NodeCount(), sess.graph.EdgeCount()),
	}, nil
}

// handleConnect implements the archsim_connect tool.
func (s *Server) handleConnect(ctx context.Context, req *sdk.CallToolRequest, args ConnectInput) (_ *sdk.CallToolResult, _ ConnectOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("archsim_connect", start, retErr, sanitizeToolParams(map[string]interface{}{
			"source": args.Source, "target": args.Target, "spread": args.Spread, "name": args.Name,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "archsim_connect"); err != nil {
		return nil, ConnectOutput{}, err
	}

	if args.Source == "" {
		return nil, ConnectOutput{}, fmt.Errorf("'source' parameter is required")
	}
	if args.Target == "" {
		return nil, ConnectOutput{}, fmt.Errorf("'target' parameter is required")
	}

	spread := args.Spread
	if spread == 0 {
		spread = defaultConnectSpread
	}
	if spread < 0 || spread > 1 {
		return nil, ConnectOutput{}, fmt.Errorf("spread must be in [0, 1], got %g", spread)
	}

	name := sanitize.Label(args.Name)
	if name == "" {
		name = args.Source + "->" + args.Target
	}
	edge := models.Edge{
		Name:           name,
		Reliability:    topology.DefaultReliability,
		Bandwidth:      topology.DefaultBandwidth,
		TechDebtSpread: spread,
		Latency:        models.Normal(10, 2),
		FailureRate:    models.LogNormal(-5, 0.2),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.session.graph
	if err := g.AddEdge(args.Source, args.Target, edge); err != nil {
		return nil, ConnectOutput{}, err
	}

	return nil, ConnectOutput{
		Source:  args.Source,
		Target:  args.Target,
		Spread:  spread,
		Edges:   g.EdgeCount(),
		Message: fmt.Sprintf("Edge created: %s -[%.2f]-> %s", args.Source, spread, args.Target),
	}, nil
}
