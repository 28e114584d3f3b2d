package hierarchy

import "context"

// ManagerLookup resolves a user's reports_to reference.
type ManagerLookup interface {
	ManagerOf(ctx context.Context, userID int64) (*int64, error)
}

// maxChainDepth bounds the walk so a pre-existing corrupt chain cannot
// spin forever.
const maxChainDepth = 64

// WouldCreateCycle reports whether pointing userID's reports_to at
// newManagerID would close a loop in the org chart. The chart is a tree;
// assignments that violate that are rejected at write time instead of
// being trusted at traversal time.
func WouldCreateCycle(ctx context.Context, lookup ManagerLookup, userID, newManagerID int64) (bool, error) {
	if userID == newManagerID {
		return true, nil
	}

	current := newManagerID
	for depth := 0; depth < maxChainDepth; depth++ {
		managerID, err := lookup.ManagerOf(ctx, current)
		if err != nil {
			return false, err
		}
		if managerID == nil {
			return false, nil
		}
		if *managerID == userID {
			return true, nil
		}
		current = *managerID
	}

	// chain deeper than any sane org chart: treat as cyclic
	return true, nil
}
