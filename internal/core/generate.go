package core

import (
	"math"
	"math/rand/v2"
)

// Generator parameters for the synthetic series.
const (
	SeriesYear      = 2024
	valueMean       = 100.0
	valueStdDev     = 15.0
	seasonalAmp     = 20.0
	seasonalPeriod  = 365.0
	pcgStreamSelect = 0x9e3779b97f4a7c15
)

// SeriesStart and SeriesEnd bound the generated dataset, both inclusive.
var (
	SeriesStart = NewDate(SeriesYear, 1, 1)
	SeriesEnd   = NewDate(SeriesYear, 12, 31)
)

// Generate builds the synthetic daily dataset for seed. Each call owns its
// random source, so results never depend on call order.
func Generate(seed int64) Dataset {
	return GenerateFrom(rand.New(rand.NewPCG(uint64(seed), pcgStreamSelect)))
}

// GenerateFrom builds the dataset drawing from r. All value draws happen
// before any category draw.
func GenerateFrom(r *rand.Rand) Dataset {
	dates := seriesDates()
	n := len(dates)

	values := make([]float64, n)
	for i := range values {
		noise := r.NormFloat64()*valueStdDev + valueMean
		seasonal := seasonalAmp * math.Sin(2*math.Pi*float64(i)/seasonalPeriod)
		values[i] = noise + seasonal
	}

	labels := Categories()
	ds := make(Dataset, n)
	for i := range ds {
		ds[i] = Record{
			Date:     dates[i],
			Value:    values[i],
			Category: labels[r.IntN(len(labels))],
		}
	}
	return ds
}

func seriesDates() []Date {
	var out []Date
	for d := SeriesStart; !d.After(SeriesEnd.Time); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}
