package guidance

import (
	"fmt"

	"github.com/lintang-b-s/courierx/pkg/datastructure"
	"github.com/lintang-b-s/courierx/pkg/geo"
	"github.com/lintang-b-s/courierx/pkg/util"
)

const (
	SIGN_DEPART   = "depart"
	SIGN_CONTINUE = "continue"
	SIGN_ARRIVE   = "arrive"
)

// Instruction is one rider-facing step of a delivery leg. Consecutive edges
// sharing a road name collapse into a single step.
type Instruction struct {
	Sign       string              `json:"sign"`
	Text       string              `json:"text"`
	StreetName string              `json:"street_name,omitempty"`
	Heading    string              `json:"heading,omitempty"`
	DistanceKm float64             `json:"distance_km"`
	EdgeCount  int                 `json:"edge_count"`
	StartNode  datastructure.Index `json:"start_node"`
	EndNode    datastructure.Index `json:"end_node"`
}

type InstructionBuilder struct {
	graph Graph
}

func NewInstructionBuilder(graph Graph) *InstructionBuilder {
	return &InstructionBuilder{
		graph: graph,
	}
}

// BuildInstructions turns a node path into depart/continue/arrive steps. The
// path must come from one of the routing strategies over the same graph, a
// missing edge between consecutive nodes means the caller handed over a path
// computed before a closure.
func (ib *InstructionBuilder) BuildInstructions(route []datastructure.Index) ([]Instruction, error) {
	if len(route) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "guidance: empty route")
	}

	dest, err := ib.graph.GetNode(route[len(route)-1])
	if err != nil {
		return nil, err
	}

	if len(route) == 1 {
		return []Instruction{ib.arriveAt(dest, route[0])}, nil
	}

	instructions := make([]Instruction, 0)
	var current *Instruction

	for i := 0; i+1 < len(route); i++ {
		edge, ok, err := ib.graph.EdgeBetween(route[i], route[i+1])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, util.WrapErrorf(nil, util.ErrInternalServerError,
				"guidance: route references missing edge %d-%d", route[i], route[i+1])
		}

		if current != nil && current.StreetName == edge.GetRoadName() {
			current.DistanceKm += edge.GetDist()
			current.EdgeCount++
			current.EndNode = route[i+1]
			continue
		}

		heading, err := ib.initialHeading(route[i], route[i+1])
		if err != nil {
			return nil, err
		}

		sign := SIGN_CONTINUE
		if current == nil {
			sign = SIGN_DEPART
		}
		instructions = append(instructions, Instruction{
			Sign:       sign,
			StreetName: edge.GetRoadName(),
			Heading:    heading,
			DistanceKm: edge.GetDist(),
			EdgeCount:  1,
			StartNode:  route[i],
			EndNode:    route[i+1],
		})
		current = &instructions[len(instructions)-1]
	}

	for i := range instructions {
		instructions[i].DistanceKm = util.RoundFloat(instructions[i].DistanceKm, 3)
		instructions[i].Text = stepText(instructions[i])
	}

	return append(instructions, ib.arriveAt(dest, route[len(route)-1])), nil
}

func (ib *InstructionBuilder) initialHeading(from, to datastructure.Index) (string, error) {
	tail, err := ib.graph.GetNode(from)
	if err != nil {
		return "", err
	}
	head, err := ib.graph.GetNode(to)
	if err != nil {
		return "", err
	}
	bearing := geo.BearingTo(tail.GetLat(), tail.GetLon(), head.GetLat(), head.GetLon())
	return geo.CompassDirection(bearing), nil
}

func (ib *InstructionBuilder) arriveAt(dest *datastructure.Node, id datastructure.Index) Instruction {
	text := "Arrive at destination"
	if dest.GetName() != "" {
		text = fmt.Sprintf("Arrive at %s", dest.GetName())
	}
	return Instruction{
		Sign:      SIGN_ARRIVE,
		Text:      text,
		StartNode: id,
		EndNode:   id,
	}
}

func stepText(ins Instruction) string {
	street := ins.StreetName
	if street == "" {
		street = "unnamed road"
	}
	if ins.Sign == SIGN_DEPART {
		return fmt.Sprintf("Head %s on %s for %.2f km", ins.Heading, street, ins.DistanceKm)
	}
	return fmt.Sprintf("Continue %s on %s for %.2f km", ins.Heading, street, ins.DistanceKm)
}
