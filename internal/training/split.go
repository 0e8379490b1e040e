package training

import "math/rand"

// StratifiedSplit shuffles each class separately and holds out testFraction
// of it, so both sides keep the class balance of y.
func StratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := make(map[int][]int)
	var classes []int
	for i, label := range y {
		if _, ok := byClass[label]; !ok {
			classes = append(classes, label)
		}
		byClass[label] = append(byClass[label], i)
	}

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(float64(len(idx))*testFraction + 0.5)
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	return train, test
}

// ClassWeights returns balanced weights n / (classes * count), indexed by label.
func ClassWeights(y []int) [2]float64 {
	var counts [2]int
	for _, label := range y {
		counts[label]++
	}

	var w [2]float64
	for c, n := range counts {
		if n > 0 {
			w[c] = float64(len(y)) / (2 * float64(n))
		}
	}
	return w
}
