package core

// HistogramBin counts records per category for values in [Lower, Upper).
// The last bin also includes Upper.
type HistogramBin struct {
	Lower  float64
	Upper  float64
	Counts map[Category]int
}

// Total returns the number of records in the bin across categories.
func (b HistogramBin) Total() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}

// Histogram splits the value range of view into equal-width bins. An empty
// view or a non-positive bin count yields no bins; a view whose values are all
// equal yields a single bin.
func Histogram(view Dataset, bins int) []HistogramBin {
	if len(view) == 0 || bins <= 0 {
		return nil
	}
	_, vr, _ := Bounds(view)
	width := (vr.Max - vr.Min) / float64(bins)
	if width == 0 {
		bins = 1
	}

	out := make([]HistogramBin, bins)
	for i := range out {
		out[i] = HistogramBin{
			Lower:  vr.Min + float64(i)*width,
			Upper:  vr.Min + float64(i+1)*width,
			Counts: make(map[Category]int, 3),
		}
	}
	out[bins-1].Upper = vr.Max

	for _, r := range view {
		idx := 0
		if width > 0 {
			idx = int((r.Value - vr.Min) / width)
		}
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Counts[r.Category]++
	}
	return out
}
