package boost

// Node is a single node in a regression tree. Leaves carry the unscaled
// output value; internal nodes carry the split.
type Node struct {
	NodeID     int     `json:"node_id"`
	ParentID   int     `json:"parent_id"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`

	SplitFeature int     `json:"split_feature"`
	Threshold    float64 `json:"threshold"`
	Gain         float64 `json:"gain"`

	LeafValue float64 `json:"leaf_value"`
	LeafCount int     `json:"leaf_count"`
}

// IsLeaf reports whether the node is terminal.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree is one member of the boosted ensemble. ShrinkageRate is the learning
// rate applied to leaf values at prediction time.
type Tree struct {
	TreeIndex     int     `json:"tree_index"`
	NumLeaves     int     `json:"num_leaves"`
	ShrinkageRate float64 `json:"shrinkage"`
	Nodes         []Node  `json:"nodes"`
}

// Predict routes a feature vector to a leaf and returns the shrunk leaf
// value (a raw-score contribution, not a probability).
func (t *Tree) Predict(features []float64) float64 {
	nodeID := 0
	for nodeID >= 0 && nodeID < len(t.Nodes) {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return node.LeafValue * t.ShrinkageRate
		}
		if features[node.SplitFeature] <= node.Threshold {
			nodeID = node.LeftChild
		} else {
			nodeID = node.RightChild
		}
	}
	return 0
}

func (t *Tree) countLeaves() int {
	count := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			count++
		}
	}
	return count
}
