package forest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/akolanti/MLServe/internal/classifier"
	"github.com/akolanti/MLServe/internal/config"
)

// Tree mirrors the node arrays of a fitted sklearn decision tree
type Tree struct {
	ChildrenLeft  []int         `json:"children_left"`
	ChildrenRight []int         `json:"children_right"`
	Feature       []int         `json:"feature"`
	Threshold     []float64     `json:"threshold"`
	Value         [][][]float64 `json:"value"`
}

type Forest struct {
	NFeatures  int      `json:"n_features"`
	ClassNames []string `json:"class_names"`
	Trees      []Tree   `json:"trees"`
}

const leaf = -1

func Load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forest: %w", err)
	}
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse forest: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	if len(f.ClassNames) == 0 {
		f.ClassNames = config.IrisClassNames
	}
	return &f, nil
}

func (f *Forest) validate() error {
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i, t := range f.Trees {
		n := len(t.ChildrenLeft)
		if n == 0 || len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
			return fmt.Errorf("tree %d: node arrays have mismatched lengths", i)
		}
	}
	return nil
}

func (f *Forest) Classes() []string {
	return f.ClassNames
}

func (f *Forest) Close() error {
	return nil
}

func (f *Forest) Predict(ctx context.Context, instances [][]float64) ([]int, error) {
	out := make([]int, len(instances))
	for i, x := range instances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		proba, err := f.PredictProba(x)
		if err != nil {
			return nil, err
		}
		out[i] = classifier.Argmax(proba)
	}
	return out, nil
}

// PredictProba averages the normalised leaf distributions of every tree
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	var total []float64
	for _, t := range f.Trees {
		dist, err := t.leafDistribution(x)
		if err != nil {
			return nil, err
		}
		if total == nil {
			total = make([]float64, len(dist))
		}
		if len(dist) != len(total) {
			return nil, errors.New("trees disagree on the number of classes")
		}
		var sum float64
		for _, v := range dist {
			sum += v
		}
		for k, v := range dist {
			if sum > 0 {
				total[k] += v / sum
			}
		}
	}
	for k := range total {
		total[k] /= float64(len(f.Trees))
	}
	return total, nil
}

var errCyclicTree = errors.New("tree walk exceeded its node count")

// leafDistribution walks x down to a leaf. Features are rounded to float32
// before the comparison, as sklearn casts its input to float32. A walk longer
// than the node count means the artifact has a cycle.
func (t Tree) leafDistribution(x []float64) ([]float64, error) {
	node := 0
	for steps := 0; t.ChildrenLeft[node] != leaf; steps++ {
		if steps >= len(t.ChildrenLeft) {
			return nil, errCyclicTree
		}
		feature := t.Feature[node]
		if feature < 0 || feature >= len(x) {
			return nil, fmt.Errorf("node %d splits on missing feature %d", node, feature)
		}
		if float64(float32(x[feature])) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
		if node < 0 || node >= len(t.ChildrenLeft) {
			return nil, fmt.Errorf("child index %d out of range", node)
		}
	}
	if len(t.Value[node]) == 0 {
		return nil, fmt.Errorf("leaf %d has no value", node)
	}
	return t.Value[node][0], nil
}
