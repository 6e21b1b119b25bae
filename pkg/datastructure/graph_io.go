package datastructure

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/courierx/pkg/util"
)

// WriteRoadGraph persists the graph as a bzip2 compressed text snapshot.
// Each undirected segment appears once, load rebuilds both directions.
func (g *RoadGraph) WriteRoadGraph(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	defer bz.Close()

	w := bufio.NewWriter(bz)

	fmt.Fprintf(w, "%d %d\n", g.NumberOfNodes(), g.NumberOfEdges())

	g.ForEachNode(func(node *Node) {
		latF := strconv.FormatFloat(node.GetLat(), 'f', -1, 64)
		lonF := strconv.FormatFloat(node.GetLon(), 'f', -1, 64)

		fmt.Fprintf(w, "%d %s %s %s\n", node.GetID(), latF, lonF, strconv.Quote(node.GetName()))
	})

	g.ForEachOutEdge(func(tail Index, e *OutEdge) {
		if tail > e.GetHead() {
			return
		}
		distF := strconv.FormatFloat(e.GetDist(), 'f', -1, 64)
		trafficF := strconv.FormatFloat(e.GetTraffic(), 'f', -1, 64)
		qualityF := strconv.FormatFloat(e.GetQuality(), 'f', -1, 64)

		fmt.Fprintf(w, "%d %d %s %s %s %s\n", tail, e.GetHead(),
			distF, trafficF, qualityF, strconv.Quote(e.GetRoadName()))
	})

	return w.Flush()
}

func fields(s string) []string {

	return strings.Fields(s)
}

func ParseIndex(s string) (Index, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint32 {
		return 0, fmt.Errorf("value %s overflows uint32", s)
	}
	return Index(u), nil
}

// name is the last token on its line and quoted, so it may contain spaces.
func splitQuotedName(line string, fixedTokens int) ([]string, string, error) {
	tokens := fields(line)
	if len(tokens) < fixedTokens+1 {
		return nil, "", fmt.Errorf("expected at least %d fields, got %d", fixedTokens+1, len(tokens))
	}
	quoted := strings.Join(tokens[fixedTokens:], " ")
	name, err := strconv.Unquote(quoted)
	if err != nil {
		return nil, "", fmt.Errorf("name field: %w", err)
	}
	return tokens[:fixedTokens], name, nil
}

func ReadRoadGraph(filename string) (*RoadGraph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	bz, err := bzip2.NewReader(f, nil)

	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(bz)

	line, err := util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens := fields(line)
	if len(tokens) != 2 {
		return nil, fmt.Errorf("snapshot header: expected 2 fields, got %d", len(tokens))
	}

	numNodes, err := strconv.Atoi(tokens[0])
	if err != nil {
		return nil, err
	}
	numEdges, err := strconv.Atoi(tokens[1])
	if err != nil {
		return nil, err
	}

	graph := NewRoadGraph()

	for i := 0; i < numNodes; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		node, err := parseNodeLine(line)
		if err != nil {
			return nil, err
		}
		if err := graph.AddNode(node); err != nil {
			return nil, err
		}
	}

	for i := 0; i < numEdges; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		if err := parseEdgeLineInto(graph, line); err != nil {
			return nil, err
		}
	}

	return graph, nil
}

func parseNodeLine(line string) (*Node, error) {
	tokens, name, err := splitQuotedName(line, 3)
	if err != nil {
		return nil, err
	}

	id, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, err
	}
	lat, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return nil, fmt.Errorf("lon: %w", err)
	}

	return NewNode(id, lat, lon, name), nil
}

func parseEdgeLineInto(graph *RoadGraph, line string) error {
	tokens, roadName, err := splitQuotedName(line, 5)
	if err != nil {
		return err
	}

	tail, err := ParseIndex(tokens[0])
	if err != nil {
		return err
	}
	head, err := ParseIndex(tokens[1])
	if err != nil {
		return err
	}
	dist, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return fmt.Errorf("dist: %w", err)
	}
	traffic, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return fmt.Errorf("traffic: %w", err)
	}
	quality, err := strconv.ParseFloat(tokens[4], 64)
	if err != nil {
		return fmt.Errorf("quality: %w", err)
	}

	return graph.AddEdge(tail, head, dist, traffic, quality, roadName)
}
