package engine

import (
	"fmt"
	"math/rand"
	"testing"
)

// createSampleRecords builds `countries` countries observed over `years`
// consecutive years, shuffled. Population grows 1% a year from a
// per-country base.
func createSampleRecords(countries, years int) []PopulationRecord {
	records := make([]PopulationRecord, 0, countries*years)
	for c := 0; c < countries; c++ {
		pop := 1_000_000.0 + 250_000.0*float64(c)
		for y := 0; y < years; y++ {
			records = append(records, PopulationRecord{
				Country:    fmt.Sprintf("Country %03d", c),
				Year:       1990 + y,
				Population: pop,
			})
			pop *= 1.01
		}
	}
	rand.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
	return records
}

func BenchmarkAnnualGrowthRate(b *testing.B) {
	view := NewSliceView(createSampleRecords(200, 60))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := AnnualGrowthRate(view); err != nil {
			b.Fatalf("AnnualGrowthRate failed: %v", err)
		}
	}
}

func BenchmarkGrowthLeadersAndLaggards(b *testing.B) {
	view := NewSliceView(createSampleRecords(200, 60))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := GrowthLeadersAndLaggards(view); err != nil {
			b.Fatalf("GrowthLeadersAndLaggards failed: %v", err)
		}
	}
}

func BenchmarkGrowthLeadersAndLaggardsParallel(b *testing.B) {
	view := NewSliceView(createSampleRecords(200, 60))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := GrowthLeadersAndLaggards(view, WithParallelism(8)); err != nil {
			b.Fatalf("GrowthLeadersAndLaggards failed: %v", err)
		}
	}
}
