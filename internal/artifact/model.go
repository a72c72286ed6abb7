package artifact

import "fmt"

// Model is the opaque regressor capability: encoded features in, transformed
// target out. Implementations must be pure and safe for concurrent use.
type Model interface {
	PredictEncoded(x []float64) float64
}

// LinearModel predicts with a fitted intercept and per-column coefficients.
type LinearModel struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// PredictEncoded returns intercept + w.x over the shared column prefix.
func (m *LinearModel) PredictEncoded(x []float64) float64 {
	y := m.Intercept
	n := len(m.Coefficients)
	if len(x) < n {
		n = len(x)
	}
	for i := 0; i < n; i++ {
		y += m.Coefficients[i] * x[i]
	}
	return y
}

// TreeNode is one node of a regression tree. Feature < 0 marks a leaf.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a regression tree stored as a flat node array rooted at index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Feature < 0 {
			return node.Value
		}
		if node.Feature < len(x) && x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// TreeEnsemble is a gradient-boosted regression forest: a base score plus the
// learning-rate-weighted sum of tree outputs.
type TreeEnsemble struct {
	Base         float64 `json:"base"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

// PredictEncoded sums the boosted tree outputs onto the base score.
func (m *TreeEnsemble) PredictEncoded(x []float64) float64 {
	y := m.Base
	rate := m.LearningRate
	if rate == 0 {
		rate = 1.0
	}
	for i := range m.Trees {
		y += rate * m.Trees[i].predict(x)
	}
	return y
}

func (m *TreeEnsemble) validate() error {
	for ti, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d: no nodes", ti)
		}
		for ni, node := range tree.Nodes {
			if node.Feature < 0 {
				continue
			}
			if node.Left < 0 || node.Left >= len(tree.Nodes) ||
				node.Right < 0 || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
			if node.Left <= ni || node.Right <= ni {
				return fmt.Errorf("tree %d node %d: children must follow parent", ti, ni)
			}
		}
	}
	return nil
}

// Model kinds accepted in on-disk artifacts.
const (
	ModelKindLinear       = "linear"
	ModelKindTreeEnsemble = "tree_ensemble"
)

// modelSpec is the on-disk tagged union for the regressor.
type modelSpec struct {
	Kind         string        `json:"kind"`
	Linear       *LinearModel  `json:"linear,omitempty"`
	TreeEnsemble *TreeEnsemble `json:"tree_ensemble,omitempty"`
}

func (s *modelSpec) build() (Model, error) {
	switch s.Kind {
	case ModelKindLinear:
		if s.Linear == nil {
			return nil, fmt.Errorf("model kind %q without linear payload", s.Kind)
		}
		return s.Linear, nil
	case ModelKindTreeEnsemble:
		if s.TreeEnsemble == nil {
			return nil, fmt.Errorf("model kind %q without tree_ensemble payload", s.Kind)
		}
		if err := s.TreeEnsemble.validate(); err != nil {
			return nil, err
		}
		return s.TreeEnsemble, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", s.Kind)
	}
}
