package training

import (
	"math"
	"sort"

	"github.com/OldStager01/healthcare-records/internal/prediction"
)

// ROCAUC computes the area under the ROC curve with the rank-sum formula,
// averaging ranks over tied scores. It is NaN when y has a single class.
func ROCAUC(y []int, scores []float64) float64 {
	n := len(y)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var nPos, nNeg, rankSum float64
	for i, label := range y {
		if label == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// ConfusionMatrix is indexed [actual][predicted].
type ConfusionMatrix [2][2]int

// NewConfusionMatrix predicts class 1 when the score is above 0.5.
func NewConfusionMatrix(y []int, scores []float64) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, label := range y {
		pred := 0
		if scores[i] > 0.5 {
			pred = 1
		}
		cm[label][pred]++
	}
	return cm
}

func (cm ConfusionMatrix) Precision() float64 {
	return ratio(cm[1][1], cm[1][1]+cm[0][1])
}

func (cm ConfusionMatrix) Recall() float64 {
	return ratio(cm[1][1], cm[1][1]+cm[1][0])
}

func (cm ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func (cm ConfusionMatrix) Accuracy() float64 {
	return ratio(cm[0][0]+cm[1][1], cm[0][0]+cm[0][1]+cm[1][0]+cm[1][1])
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

type FeatureImportance struct {
	Feature    string
	Importance float64
}

// TopFeatures returns the k most important features, highest first.
func TopFeatures(importances prediction.Vector, k int) []FeatureImportance {
	all := make([]FeatureImportance, prediction.NumFeatures)
	for i, v := range importances {
		all[i] = FeatureImportance{Feature: prediction.FeatureOrder[i], Importance: v}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].Importance > all[b].Importance })

	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

// Stratification counts patients per risk bucket.
type Stratification struct {
	Low    int
	Medium int
	High   int
}

func (s Stratification) Total() int {
	return s.Low + s.Medium + s.High
}

func Stratify(scores []float64) Stratification {
	var s Stratification
	for _, p := range scores {
		switch prediction.Bucket(p) {
		case prediction.CategoryLow:
			s.Low++
		case prediction.CategoryMedium:
			s.Medium++
		default:
			s.High++
		}
	}
	return s
}
