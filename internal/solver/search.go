package solver

import (
	"context"
	"math"
	"time"

	"delivery-route-optimizer/internal/geo"
)

const (
	unreachable = int64(-1)
	noNode      = -1

	// glsLambdaCoefficient scales arc penalties relative to the average arc cost
	// of the first local optimum.
	glsLambdaCoefficient = 0.1

	// checkEvery is how many move evaluations pass between clock reads.
	checkEvery = 1024

	improvementEps = 1e-9
)

type solution struct {
	path      []int
	dropped   []bool
	objective int64
}

func (s solution) clone() solution {
	c := solution{
		path:      make([]int, len(s.path)),
		dropped:   make([]bool, len(s.dropped)),
		objective: s.objective,
	}
	copy(c.path, s.path)
	copy(c.dropped, s.dropped)
	return c
}

type search struct {
	ctx      context.Context
	deadline time.Time
	opts     Options

	n         int
	start     int
	cost      [][]int64
	symmetric bool

	penalties [][]int
	lambda    float64

	cur  solution
	best solution

	steps   int
	expired bool
	rounds  int
}

func newSearch(weighted geo.Matrix, start int, opts Options) (*search, error) {
	cost, symmetric, err := toFixed(weighted, opts.Scale)
	if err != nil {
		return nil, err
	}

	n := len(cost)
	penalties := make([][]int, n)
	for i := range penalties {
		penalties[i] = make([]int, n)
	}

	return &search{
		opts:      opts,
		n:         n,
		start:     start,
		cost:      cost,
		symmetric: symmetric,
		penalties: penalties,
	}, nil
}

// construct builds the initial path by repeatedly appending the cheapest
// reachable unvisited node. Ties go to the lower node index so the result is
// deterministic. Nodes that cannot be reached are dropped.
func (s *search) construct() {
	visited := make([]bool, s.n)
	visited[s.start] = true
	path := []int{s.start}
	current := s.start

	for len(path) < s.n {
		next := noNode
		minCost := int64(math.MaxInt64)
		for v := 0; v < s.n; v++ {
			if visited[v] {
				continue
			}
			c := s.cost[current][v]
			if c == unreachable {
				continue
			}
			if c < minCost {
				minCost = c
				next = v
			}
		}
		if next == noNode {
			break
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}

	dropped := make([]bool, s.n)
	for v := 0; v < s.n; v++ {
		dropped[v] = !visited[v]
	}

	s.cur = solution{path: path, dropped: dropped}
	s.cur.objective = s.objective(s.cur)
	s.best = s.cur.clone()
}

// run alternates local search with arc penalization until the budget is spent,
// the search stalls, or a zero-cost path is found.
func (s *search) run() {
	if s.n <= 2 {
		s.localSearch()
		s.record()
		return
	}

	stall := 0
	for !s.timeUp() {
		s.localSearch()
		s.rounds++
		improved := s.record()

		if s.opts.Metaheuristic != GuidedLocalSearch || s.best.objective == 0 {
			return
		}
		if improved {
			stall = 0
		} else {
			stall++
			if stall >= s.opts.MaxStall {
				return
			}
		}

		if !s.penalize() {
			return
		}
	}
}

// record keeps cur as the incumbent when its true objective is better.
func (s *search) record() bool {
	s.cur.objective = s.objective(s.cur)
	if s.cur.objective < s.best.objective {
		s.best = s.cur.clone()
		return true
	}
	return false
}

func (s *search) objective(sol solution) int64 {
	var total int64
	for i := 0; i+1 < len(sol.path); i++ {
		total += s.cost[sol.path[i]][sol.path[i+1]]
	}
	for v, d := range sol.dropped {
		if d && v != s.start {
			total += s.opts.DropPenalty
		}
	}
	return total
}

// penalize raises the penalty of the path arcs with maximum utility
// cost/(1+penalty). It reports false when there is nothing left to penalize.
func (s *search) penalize() bool {
	path := s.cur.path
	if len(path) < 2 {
		return false
	}

	if s.lambda == 0 {
		var sum int64
		for i := 0; i+1 < len(path); i++ {
			sum += s.cost[path[i]][path[i+1]]
		}
		s.lambda = glsLambdaCoefficient * float64(sum) / float64(len(path)-1)
		if s.lambda <= 0 {
			return false
		}
	}

	maxUtil := -1.0
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		u := float64(s.cost[a][b]) / float64(1+s.penalties[a][b])
		if u > maxUtil {
			maxUtil = u
		}
	}
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		u := float64(s.cost[a][b]) / float64(1+s.penalties[a][b])
		if u == maxUtil {
			s.penalties[a][b]++
			if s.symmetric {
				s.penalties[b][a]++
			}
		}
	}
	return true
}

func (s *search) timeUp() bool {
	if s.expired {
		return true
	}
	if time.Now().After(s.deadline) || s.ctx.Err() != nil {
		s.expired = true
	}
	return s.expired
}

// tick is called per move evaluation and reads the clock only occasionally.
func (s *search) tick() bool {
	s.steps++
	if s.steps&(checkEvery-1) == 0 {
		return s.timeUp()
	}
	return s.expired
}

// arc is the augmented cost of a→b. b == noNode is the open end of the path.
// The boolean is false when the arc does not exist.
func (s *search) arc(a, b int) (float64, bool) {
	if b == noNode {
		return 0, true
	}
	c := s.cost[a][b]
	if c == unreachable {
		return 0, false
	}
	return float64(c) + s.lambda*float64(s.penalties[a][b]), true
}

func (s *search) at(pos int) int {
	if pos < 0 || pos >= len(s.cur.path) {
		return noNode
	}
	return s.cur.path[pos]
}
