package models

import "fmt"

// DashboardStats summarises the patient table for the landing dashboard.
type DashboardStats struct {
	TotalPatients int     `json:"total_patients"`
	StrokeCases   int     `json:"stroke_cases"`
	NoStrokeCases int     `json:"no_stroke_cases"`
	AvgAge        float64 `json:"avg_age"`
}

type CountBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type StrokeBucket struct {
	Key         string `json:"key"`
	Count       int    `json:"count"`
	StrokeCount int    `json:"stroke_count"`
}

type HealthCorrelation struct {
	Hypertension int `json:"hypertension"`
	HeartDisease int `json:"heart_disease"`
	Count        int `json:"count"`
	StrokeCount  int `json:"stroke_count"`
}

type Analytics struct {
	GenderDistribution []CountBucket       `json:"gender_dist"`
	AgeGroups          []StrokeBucket      `json:"age_groups"`
	HealthCorrelation  []HealthCorrelation `json:"health_correlation"`
	SmokingStroke      []StrokeBucket      `json:"smoking_stroke"`
}

// AgeGroupBoundaries are the lower bounds of each age bucket; the last value is
// the exclusive upper bound of the final bucket.
var AgeGroupBoundaries = []float64{0, 20, 40, 60, 80, 120}

const AgeGroupOther = "Other"

// AgeGroupLabel names bucket i, e.g. "20-40".
func AgeGroupLabel(i int) string {
	if i < 0 || i >= len(AgeGroupBoundaries)-1 {
		return AgeGroupOther
	}
	return fmt.Sprintf("%g-%g", AgeGroupBoundaries[i], AgeGroupBoundaries[i+1])
}
