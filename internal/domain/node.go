package domain

// Node is a location participating in a single optimization request.
// Index 0 is always the depot (fixed start).
type Node struct {
	Index  int
	Coords Coordinates
	Name   string
}

// NodeCoordinates returns the coordinates of nodes in index order.
func NodeCoordinates(nodes []Node) []Coordinates {
	out := make([]Coordinates, len(nodes))
	for i, n := range nodes {
		out[i] = n.Coords
	}
	return out
}
