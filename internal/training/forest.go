package training

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/healthcare-records/internal/prediction"
)

type ForestConfig struct {
	NTrees    int
	Tree      TreeConfig
	Bootstrap bool
	Seed      int64
	// Workers caps the trees grown at once; 0 means GOMAXPROCS.
	Workers int
}

func defaultMaxFeatures() int {
	return int(math.Sqrt(float64(prediction.NumFeatures)))
}

// TrainForest grows cfg.NTrees trees in parallel. Tree i draws from its own
// generator seeded with cfg.Seed+i, so the result does not depend on
// scheduling. Importances are normalised per tree and averaged.
func TrainForest(ctx context.Context, x []prediction.Vector, y []int, cfg ForestConfig) (*prediction.Forest, prediction.Vector, error) {
	if len(x) == 0 {
		return nil, prediction.Vector{}, ErrNoData
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	classWeight := ClassWeights(y)
	trees := make([]prediction.Tree, cfg.NTrees)
	importances := make([]prediction.Vector, cfg.NTrees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < cfg.NTrees; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			sample := make([]int, len(x))
			for k := range sample {
				if cfg.Bootstrap {
					sample[k] = rng.Intn(len(x))
				} else {
					sample[k] = k
				}
			}

			trees[i], importances[i] = buildTree(x, y, sample, classWeight, cfg.Tree, rng)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, prediction.Vector{}, err
	}

	var mean prediction.Vector
	for _, imp := range importances {
		var sum float64
		for _, v := range imp {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for f, v := range imp {
			mean[f] += v / sum
		}
	}
	var total float64
	for _, v := range mean {
		total += v
	}
	if total > 0 {
		for f := range mean {
			mean[f] /= total
		}
	}

	forest, err := prediction.NewForest(trees)
	if err != nil {
		return nil, prediction.Vector{}, err
	}
	return forest, mean, nil
}
