package semantic

import (
	"sort"
	"strings"

	"github.com/planar-dev/planar/pkg/geom"
	"github.com/planar-dev/planar/pkg/model"
)

// Proximity thresholds for edge detection. Adjacency is strict;
// door-to-room connectivity uses a deliberately looser radius.
const (
	adjacencyDistance    = 0.1
	connectivityDistance = 2.0
)

// EdgeType enumerates spatial relationship kinds.
type EdgeType int

const (
	Adjacent EdgeType = iota
	Contained
	Connects
)

func (t EdgeType) String() string {
	switch t {
	case Adjacent:
		return "adjacent"
	case Contained:
		return "contained"
	case Connects:
		return "connects"
	default:
		return "unknown"
	}
}

// GraphNode is one node of the spatial graph; node ids equal element
// ids.
type GraphNode struct {
	NodeID            string `json:"node_id"`
	SemanticElementID string `json:"semantic_element_id"`
	SemanticType      Type   `json:"semantic_type"`
}

// GraphEdge is one relationship between two nodes.
type GraphEdge struct {
	FromNodeID string            `json:"from_node_id"`
	ToNodeID   string            `json:"to_node_id"`
	EdgeType   EdgeType          `json:"edge_type"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Graph is the deterministic spatial relationship graph over semantic
// elements. GraphHash is content-derived and order-independent.
type Graph struct {
	Nodes                 []GraphNode `json:"nodes"`
	Edges                 []GraphEdge `json:"edges"`
	AdjacencyEdgeCount    int         `json:"adjacency_edge_count"`
	ContainmentEdgeCount  int         `json:"containment_edge_count"`
	ConnectivityEdgeCount int         `json:"connectivity_edge_count"`
	GraphHash             string      `json:"graph_hash"`
}

// BuildGraph constructs the spatial graph over the given elements. It
// is a pure function of its input: identical element sets produce
// identical hashes regardless of order.
func BuildGraph(elements []Element) *Graph {
	g := &Graph{}

	for _, el := range elements {
		g.Nodes = append(g.Nodes, GraphNode{
			NodeID:            el.ID,
			SemanticElementID: el.ID,
			SemanticType:      el.Type,
		})
	}

	// Adjacency: every unordered pair within the strict radius.
	// Endpoints are ordered lexicographically so the edge set, and
	// therefore the hash, does not depend on input order.
	for i := 0; i < len(elements); i++ {
		for j := i + 1; j < len(elements); j++ {
			if centroidDistance(elements[i], elements[j]) <= adjacencyDistance {
				from, to := orderedPair(elements[i].ID, elements[j].ID)
				g.Edges = append(g.Edges, GraphEdge{
					FromNodeID: from,
					ToNodeID:   to,
					EdgeType:   Adjacent,
				})
				g.AdjacencyEdgeCount++
			}
		}
	}

	// Containment: every (Level, Room) pair sharing a level id gets a
	// room→level edge. Levels here are elements classified as Level,
	// not the clustered BuildingLevel values.
	for _, level := range elements {
		if level.Type != Level {
			continue
		}
		for _, room := range elements {
			if room.Type != Room || room.LevelID != level.LevelID {
				continue
			}
			g.Edges = append(g.Edges, GraphEdge{
				FromNodeID: room.ID,
				ToNodeID:   level.ID,
				EdgeType:   Contained,
			})
			g.ContainmentEdgeCount++
		}
	}

	// Connectivity: rooms reachable through a shared door. A door
	// touching three or more rooms yields one edge per unordered room
	// pair.
	for _, door := range elements {
		if door.Type != Door {
			continue
		}
		var connected []Element
		for _, room := range elements {
			if room.Type != Room || room.LevelID != door.LevelID {
				continue
			}
			if centroidDistance(door, room) <= connectivityDistance {
				connected = append(connected, room)
			}
		}
		for i := 0; i < len(connected); i++ {
			for j := i + 1; j < len(connected); j++ {
				from, to := orderedPair(connected[i].ID, connected[j].ID)
				g.Edges = append(g.Edges, GraphEdge{
					FromNodeID: from,
					ToNodeID:   to,
					EdgeType:   Connects,
					Meta:       map[string]string{"via_door": door.ID},
				})
				g.ConnectivityEdgeCount++
			}
		}
	}

	g.GraphHash = graphHash(g)
	return g
}

// orderedPair returns the two ids in lexicographic order.
func orderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// centroidDistance measures between the position anchors of the two
// elements' source geometry (solid origin, line start, circle center).
func centroidDistance(a, b Element) float64 {
	return geom.Distance(a.GeometryRef.Centroid(), b.GeometryRef.Centroid())
}

// graphHash derives the 16-hex content hash: node ids sorted and
// joined, edge keys "{from}:{to}:{edge_type}" sorted and joined,
// SHA-256 over "nodes:[...]|edges:[...]".
func graphHash(g *Graph) string {
	nodeIDs := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		nodeIDs[i] = n.NodeID
	}
	sort.Strings(nodeIDs)

	edgeKeys := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		edgeKeys[i] = e.FromNodeID + ":" + e.ToNodeID + ":" + e.EdgeType.String()
	}
	sort.Strings(edgeKeys)

	payload := "nodes:[" + strings.Join(nodeIDs, ",") + "]|edges:[" + strings.Join(edgeKeys, ",") + "]"
	return model.ShortHash(payload)
}
