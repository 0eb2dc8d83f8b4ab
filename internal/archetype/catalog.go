package archetype

import (
	"github.com/nvandessel/archsim/internal/graph"
	"github.com/nvandessel/archsim/internal/models"
)

func monolith() *graph.SystemGraph {
	g := graph.New()

	core := g.AddNode(models.Node{
		Name:          "core_service",
		NodeType:      "monolith",
		Health:        100,
		TechDebt:      30,
		Complexity:    15,
		ContagionRisk: 0.5,
		OperatingCost: 500,
		CriticalPath:  true,
		Attributes:    []string{"monolithic", "legacy"},
		Latency:       models.Normal(200, 50),
		FailureRate:   models.LogNormal(-3, 0.5),
		DefectRate:    0.2,
	})
	db := g.AddNode(models.Node{
		Name:          "database",
		NodeType:      "storage",
		Health:        100,
		TechDebt:      20,
		Complexity:    5,
		ContagionRisk: 0.3,
		OperatingCost: 300,
		CriticalPath:  true,
		Attributes:    []string{"data_critical"},
		Latency:       models.Normal(50, 10),
		FailureRate:   models.LogNormal(-4, 0.3),
		DefectRate:    0.1,
	})
	cache := g.AddNode(models.Node{
		Name:          "cache",
		NodeType:      "cache",
		Health:        100,
		TechDebt:      10,
		Complexity:    3,
		ContagionRisk: 0.2,
		OperatingCost: 100,
		CriticalPath:  false,
		Attributes:    []string{"performance"},
		Latency:       models.Normal(5, 1),
		FailureRate:   models.LogNormal(-2, 0.8),
		DefectRate:    0.05,
	})

	mustEdge(g, core, db, models.Edge{
		Name:           "db_connection",
		Reliability:    0.999,
		Bandwidth:      1000,
		TechDebtSpread: 0.3,
		Latency:        models.Normal(10, 2),
		FailureRate:    models.LogNormal(-5, 0.2),
	})
	mustEdge(g, core, cache, models.Edge{
		Name:           "cache_connection",
		Reliability:    0.99,
		Bandwidth:      5000,
		TechDebtSpread: 0.1,
		Latency:        models.Normal(2, 0.5),
		FailureRate:    models.LogNormal(-3, 0.5),
	})
	return g
}

func microservices() *graph.SystemGraph {
	g := graph.New()

	gateway := g.AddNode(models.Node{
		Name:          "api_gateway",
		NodeType:      "gateway",
		Health:        100,
		TechDebt:      15,
		Complexity:    8,
		ContagionRisk: 0.4,
		OperatingCost: 200,
		CriticalPath:  true,
		Attributes:    []string{"entry_point"},
		Latency:       models.Normal(50, 10),
		FailureRate:   models.LogNormal(-4, 0.3),
		DefectRate:    0.1,
	})
	auth := g.AddNode(models.Node{
		Name:          "auth_service",
		NodeType:      "service",
		Health:        100,
		TechDebt:      20,
		Complexity:    6,
		ContagionRisk: 0.3,
		OperatingCost: 150,
		CriticalPath:  true,
		Attributes:    []string{"security"},
		Latency:       models.Normal(100, 20),
		FailureRate:   models.LogNormal(-4.5, 0.2),
		DefectRate:    0.15,
	})
	users := g.AddNode(models.Node{
		Name:          "user_service",
		NodeType:      "service",
		Health:        100,
		TechDebt:      25,
		Complexity:    7,
		ContagionRisk: 0.3,
		OperatingCost: 180,
		CriticalPath:  true,
		Attributes:    []string{"core_service"},
		Latency:       models.Normal(80, 15),
		FailureRate:   models.LogNormal(-4, 0.3),
		DefectRate:    0.12,
	})

	mustEdge(g, gateway, auth, models.Edge{
		Name:           "gateway_to_auth",
		Reliability:    0.999,
		Bandwidth:      1000,
		TechDebtSpread: 0.2,
		Latency:        models.Normal(20, 5),
		FailureRate:    models.LogNormal(-5, 0.2),
	})
	mustEdge(g, gateway, users, models.Edge{
		Name:           "gateway_to_users",
		Reliability:    0.999,
		Bandwidth:      1000,
		TechDebtSpread: 0.2,
		Latency:        models.Normal(20, 5),
		FailureRate:    models.LogNormal(-5, 0.2),
	})
	mustEdge(g, auth, users, models.Edge{
		Name:           "auth_to_users",
		Reliability:    0.999,
		Bandwidth:      500,
		TechDebtSpread: 0.3,
		Latency:        models.Normal(30, 8),
		FailureRate:    models.LogNormal(-4.5, 0.3),
	})
	return g
}

func eventDriven() *graph.SystemGraph {
	g := graph.New()

	bus := g.AddNode(models.Node{
		Name:          "event_bus",
		NodeType:      "messaging",
		Health:        100,
		TechDebt:      15,
		Complexity:    10,
		ContagionRisk: 0.6,
		OperatingCost: 400,
		CriticalPath:  true,
		Attributes:    []string{"backbone", "distributed"},
		Latency:       models.Normal(30, 10),
		FailureRate:   models.LogNormal(-5, 0.2),
		DefectRate:    0.1,
	})
	producer := g.AddNode(models.Node{
		Name:          "producer_service",
		NodeType:      "service",
		Health:        100,
		TechDebt:      20,
		Complexity:    6,
		ContagionRisk: 0.3,
		OperatingCost: 200,
		CriticalPath:  true,
		Attributes:    []string{"event_source"},
		Latency:       models.Normal(50, 15),
		FailureRate:   models.LogNormal(-4, 0.3),
		DefectRate:    0.15,
	})
	consumer := g.AddNode(models.Node{
		Name:          "consumer_service",
		NodeType:      "service",
		Health:        100,
		TechDebt:      25,
		Complexity:    7,
		ContagionRisk: 0.4,
		OperatingCost: 250,
		CriticalPath:  true,
		Attributes:    []string{"event_sink"},
		Latency:       models.Normal(70, 20),
		FailureRate:   models.LogNormal(-3.5, 0.4),
		DefectRate:    0.2,
	})

	busLink := models.Edge{
		Reliability:    0.999,
		Bandwidth:      2000,
		TechDebtSpread: 0.4,
		Latency:        models.Normal(15, 5),
		FailureRate:    models.LogNormal(-4.5, 0.3),
	}
	toBus := busLink
	toBus.Name = "to_bus"
	fromBus := busLink
	fromBus.Name = "from_bus"

	mustEdge(g, producer, bus, toBus)
	mustEdge(g, bus, consumer, fromBus)
	return g
}

// mustEdge adds an edge between IDs the caller just created; failure is a
// programming error in the catalog.
func mustEdge(g *graph.SystemGraph, from, to graph.NodeID, e models.Edge) {
	if err := g.AddEdgeByID(from, to, e); err != nil {
		panic("archetype: " + err.Error())
	}
}
