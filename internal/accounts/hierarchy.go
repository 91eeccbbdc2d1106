// Package accounts infers the hierarchical position of an account code from
// its string length and builds the navigation tree the dashboard filters on.
// The chart of accounts encodes depth in code length: 1 digit at level 1,
// 2 digits at level 2, 4 digits at level 3, 6 digits at level 4.
package accounts

// Label is one distinct (code, label) pair observed in a consolidated table.
type Label struct {
	Code string
	Name string
}

// Node is one account in the hierarchy. Children are keyed by full code.
type Node struct {
	Code     string
	Name     string
	Children map[string]*Node
}

// Hierarchy is the navigation tree of account codes, rooted at the 1-digit
// codes admitted by the valid set.
type Hierarchy struct {
	Roots map[string]*Node
	// Dropped counts codes whose parent prefix was absent and which were
	// therefore not attached anywhere. The tree exists for navigation, not
	// completeness, so orphans are discarded rather than invented.
	Dropped int
}

// Level reports the hierarchy level encoded in a code's length: 1, 2, up to 4
// digits is level 3, up to 6 digits level 4, anything longer level 5. Empty
// codes are level 0.
func Level(code string) int {
	switch n := len(code); {
	case n == 0:
		return 0
	case n == 1:
		return 1
	case n == 2:
		return 2
	case n <= 4:
		return 3
	case n <= 6:
		return 4
	default:
		return 5
	}
}

// Build assembles the hierarchy from the distinct (code, label) pairs of a
// consolidated table. Level-1 roots are restricted to validLevel1; any code
// whose parent prefix is missing is counted in Dropped and never attached.
func Build(labels []Label, validLevel1 map[string]bool) *Hierarchy {
	h := &Hierarchy{Roots: make(map[string]*Node)}

	var level2, level3, level4 []Label
	for _, l := range labels {
		if !isDigits(l.Code) {
			h.Dropped++
			continue
		}
		switch len(l.Code) {
		case 1:
			if !validLevel1[l.Code] {
				h.Dropped++
				continue
			}
			h.Roots[l.Code] = &Node{Code: l.Code, Name: l.Name, Children: make(map[string]*Node)}
		case 2:
			level2 = append(level2, l)
		case 4:
			level3 = append(level3, l)
		case 6:
			level4 = append(level4, l)
		default:
			// Intermediate lengths (3, 5) and longer codes are not part of
			// the navigation tree.
			h.Dropped++
		}
	}

	for _, l := range level2 {
		parent, ok := h.Roots[l.Code[:1]]
		if !ok {
			h.Dropped++
			continue
		}
		parent.Children[l.Code] = &Node{Code: l.Code, Name: l.Name, Children: make(map[string]*Node)}
	}

	for _, l := range level3 {
		root, ok := h.Roots[l.Code[:1]]
		if !ok {
			h.Dropped++
			continue
		}
		parent, ok := root.Children[l.Code[:2]]
		if !ok {
			h.Dropped++
			continue
		}
		parent.Children[l.Code] = &Node{Code: l.Code, Name: l.Name, Children: make(map[string]*Node)}
	}

	for _, l := range level4 {
		root, ok := h.Roots[l.Code[:1]]
		if !ok {
			h.Dropped++
			continue
		}
		mid, ok := root.Children[l.Code[:2]]
		if !ok {
			h.Dropped++
			continue
		}
		parent, ok := mid.Children[l.Code[:4]]
		if !ok {
			h.Dropped++
			continue
		}
		parent.Children[l.Code] = &Node{Code: l.Code, Name: l.Name}
	}

	return h
}

// Lookup walks the tree to the node for a code, or nil if it is not attached.
func (h *Hierarchy) Lookup(code string) *Node {
	if code == "" {
		return nil
	}
	root, ok := h.Roots[code[:1]]
	if !ok {
		return nil
	}
	node := root
	for _, cut := range []int{2, 4, 6} {
		if len(code) < cut || node.Code == code {
			break
		}
		child, ok := node.Children[code[:cut]]
		if !ok {
			return nil
		}
		node = child
	}
	if node.Code != code {
		return nil
	}
	return node
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
