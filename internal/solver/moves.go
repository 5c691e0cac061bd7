package solver

// localSearch applies first-improvement moves on the augmented objective
// until none improves or time runs out.
func (s *search) localSearch() {
	for !s.expired {
		switch {
		case s.insertDropped():
		case s.twoOpt():
		case s.relocate(3):
		case s.dropNode():
		default:
			return
		}
	}
}

// twoOpt reverses path[i..k]. The start at position 0 never moves, and the
// open end means reversing a suffix only changes one arc.
func (s *search) twoOpt() bool {
	p := s.cur.path
	m := len(p)
	for i := 1; i < m-1; i++ {
		for k := i + 1; k < m; k++ {
			if s.tick() {
				return false
			}
			a, b, c, d := p[i-1], p[i], p[k], s.at(k+1)

			oldAB, ok1 := s.arc(a, b)
			oldCD, ok2 := s.arc(c, d)
			newAC, ok3 := s.arc(a, c)
			newBD, ok4 := s.arc(b, d)
			if !(ok1 && ok2 && ok3 && ok4) {
				continue
			}
			delta := newAC + newBD - oldAB - oldCD

			if !s.symmetric {
				inner, ok := s.reversalDelta(i, k)
				if !ok {
					continue
				}
				delta += inner
			}

			if delta < -improvementEps {
				for l, r := i, k; l < r; l, r = l+1, r-1 {
					p[l], p[r] = p[r], p[l]
				}
				return true
			}
		}
	}
	return false
}

// reversalDelta is the change in internal arc cost when path[i..k] is reversed.
func (s *search) reversalDelta(i, k int) (float64, bool) {
	p := s.cur.path
	delta := 0.0
	for t := i; t < k; t++ {
		fwd, ok1 := s.arc(p[t], p[t+1])
		rev, ok2 := s.arc(p[t+1], p[t])
		if !ok1 || !ok2 {
			return 0, false
		}
		delta += rev - fwd
	}
	return delta, true
}

// relocate moves a run of up to maxLen consecutive nodes to another position
// without reversing it.
func (s *search) relocate(maxLen int) bool {
	p := s.cur.path
	m := len(p)
	for l := 1; l <= maxLen; l++ {
		for i := 1; i+l-1 < m; i++ {
			e := i + l - 1
			prev, first, last, next := p[i-1], p[i], p[e], s.at(e+1)

			rmPF, ok1 := s.arc(prev, first)
			rmLN, ok2 := s.arc(last, next)
			addPN, ok3 := s.arc(prev, next)
			if !(ok1 && ok2 && ok3) {
				continue
			}
			removal := addPN - rmPF - rmLN

			for j := 0; j < m; j++ {
				if j >= i-1 && j <= e {
					continue
				}
				if s.tick() {
					return false
				}
				u, v := p[j], s.at(j+1)
				addUF, ok1 := s.arc(u, first)
				addLV, ok2 := s.arc(last, v)
				rmUV, ok3 := s.arc(u, v)
				if !(ok1 && ok2 && ok3) {
					continue
				}
				if removal+addUF+addLV-rmUV < -improvementEps {
					s.cur.path = moveSegment(p, i, e, j)
					return true
				}
			}
		}
	}
	return false
}

// moveSegment returns p with p[i..e] placed right after position j.
func moveSegment(p []int, i, e, j int) []int {
	seg := append([]int(nil), p[i:e+1]...)
	rest := make([]int, 0, len(p)-len(seg))
	rest = append(rest, p[:i]...)
	rest = append(rest, p[e+1:]...)

	// j indexes p; shift it into rest when it lies after the segment.
	at := j
	if j > e {
		at = j - len(seg)
	}

	out := make([]int, 0, len(p))
	out = append(out, rest[:at+1]...)
	out = append(out, seg...)
	out = append(out, rest[at+1:]...)
	return out
}

// insertDropped puts a dropped node back at its cheapest position when that
// beats paying its penalty.
func (s *search) insertDropped() bool {
	penalty := float64(s.opts.DropPenalty)
	for u := 0; u < s.n; u++ {
		if !s.cur.dropped[u] || u == s.start {
			continue
		}
		p := s.cur.path
		bestPos := -1
		bestDelta := 0.0
		for j := 0; j < len(p); j++ {
			if s.tick() {
				return false
			}
			a, b := p[j], s.at(j+1)
			in, ok1 := s.arc(a, u)
			out, ok2 := s.arc(u, b)
			old, ok3 := s.arc(a, b)
			if !(ok1 && ok2 && ok3) {
				continue
			}
			delta := in + out - old - penalty
			if delta < bestDelta-improvementEps {
				bestDelta = delta
				bestPos = j
			}
		}
		if bestPos >= 0 {
			np := make([]int, 0, len(p)+1)
			np = append(np, p[:bestPos+1]...)
			np = append(np, u)
			np = append(np, p[bestPos+1:]...)
			s.cur.path = np
			s.cur.dropped[u] = false
			return true
		}
	}
	return false
}

// dropNode removes a node whose detour costs more than its penalty.
func (s *search) dropNode() bool {
	penalty := float64(s.opts.DropPenalty)
	p := s.cur.path
	for i := 1; i < len(p); i++ {
		if s.tick() {
			return false
		}
		prev, x, next := p[i-1], p[i], s.at(i+1)
		in, ok1 := s.arc(prev, x)
		out, ok2 := s.arc(x, next)
		skip, ok3 := s.arc(prev, next)
		if !(ok1 && ok2 && ok3) {
			continue
		}
		if skip-in-out+penalty < -improvementEps {
			s.cur.path = append(p[:i:i], p[i+1:]...)
			s.cur.dropped[x] = true
			return true
		}
	}
	return false
}
