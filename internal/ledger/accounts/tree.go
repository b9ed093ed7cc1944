package accounts

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// TreeRow feeds one account into the tree builder.
type TreeRow struct {
	AccountID     int64
	Name          string
	ParentID      *int64
	NormalBalance DebitCreditFlag
	SelfSum       decimal.Decimal
}

// Node is one account in the rollup tree.
type Node struct {
	AccountID                int64
	Name                     string
	NormalBalance            DebitCreditFlag
	BalanceOfSelf            decimal.Decimal
	BalanceOfSelfAndChildren decimal.Decimal
	Children                 []*Node
}

// Tree is the validated forest over a chart of accounts.
type Tree struct {
	Roots []*Node

	nodes map[int64]*Node
}

// BuildTree constructs the forest and computes self vs. rollup balances.
// Rows referencing an unknown parent become roots; a parent chain revisiting
// an ancestor fails with ErrCycleDetected.
func BuildTree(rows []TreeRow) (*Tree, error) {
	nodes := make(map[int64]*Node, len(rows))
	for _, row := range rows {
		if _, ok := nodes[row.AccountID]; ok {
			return nil, fmt.Errorf("ledger: duplicate account %d in tree rows", row.AccountID)
		}
		nodes[row.AccountID] = &Node{
			AccountID:     row.AccountID,
			Name:          row.Name,
			NormalBalance: row.NormalBalance,
			BalanceOfSelf: row.SelfSum,
		}
	}

	parents := make(map[int64]int64, len(rows))
	var roots []*Node
	for _, row := range rows {
		node := nodes[row.AccountID]
		if row.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*row.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parents[row.AccountID] = *row.ParentID
		parent.Children = append(parent.Children, node)
	}

	// Walk every parent chain; a revisited account means a cycle.
	for id := range parents {
		seen := map[int64]bool{id: true}
		cur := id
		for {
			next, ok := parents[cur]
			if !ok {
				break
			}
			if seen[next] {
				return nil, fmt.Errorf("%w: account %d", shared.ErrCycleDetected, next)
			}
			seen[next] = true
			cur = next
		}
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].AccountID < roots[j].AccountID })
	tree := &Tree{Roots: roots, nodes: nodes}
	for _, root := range tree.Roots {
		rollup(root)
	}
	return tree, nil
}

func rollup(n *Node) decimal.Decimal {
	sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].AccountID < n.Children[j].AccountID })
	total := n.BalanceOfSelf
	for _, child := range n.Children {
		total = total.Add(rollup(child))
	}
	n.BalanceOfSelfAndChildren = total
	return total
}

// Node returns the node for an account id, or nil.
func (t *Tree) Node(accountID int64) *Node {
	return t.nodes[accountID]
}

// TotalBalance sums BalanceOfSelf over every node in the forest.
func (t *Tree) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, node := range t.nodes {
		total = total.Add(node.BalanceOfSelf)
	}
	return total
}

// nodeJSON fixes the serialized field set and order; this is a compatibility
// surface for report consumers.
type nodeJSON struct {
	GLAccountID              int64           `json:"glAccountId"`
	Name                     string          `json:"name"`
	Type                     string          `json:"type"`
	BalanceOfSelf            decimal.Decimal `json:"balanceOfSelf"`
	BalanceOfSelfAndChildren decimal.Decimal `json:"balanceOfSelfAndChildren"`
	DebitCredit              string          `json:"debitCredit"`
	Children                 []nodeJSON      `json:"children"`
}

func toNodeJSON(n *Node) nodeJSON {
	kind := "leaf"
	if len(n.Children) > 0 {
		kind = "root"
	}
	out := nodeJSON{
		GLAccountID:              n.AccountID,
		Name:                     n.Name,
		Type:                     kind,
		BalanceOfSelf:            n.BalanceOfSelf,
		BalanceOfSelfAndChildren: n.BalanceOfSelfAndChildren,
		DebitCredit:              string(n.NormalBalance),
		Children:                 []nodeJSON{},
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, toNodeJSON(child))
	}
	return out
}

// MarshalJSON renders roots first in account-id order with ordered children,
// so two builds over the same rows serialize byte-identically.
func (t *Tree) MarshalJSON() ([]byte, error) {
	out := make([]nodeJSON, 0, len(t.Roots))
	for _, root := range t.Roots {
		out = append(out, toNodeJSON(root))
	}
	return json.Marshal(out)
}
