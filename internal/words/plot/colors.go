package plot

import (
	"fmt"
	"math"
)

const lutSize = 256

// rainbowLUT is matplotlib's "rainbow" colormap sampled into 256 entries
var rainbowLUT = buildRainbow()

func buildRainbow() [lutSize][3]float64 {
	var lut [lutSize][3]float64
	for k := 0; k < lutSize; k++ {
		x := float64(k) / float64(lutSize-1)
		lut[k] = [3]float64{
			clip(math.Abs(2*x - 0.5)),
			clip(math.Sin(x * math.Pi)),
			clip(math.Cos(x * math.Pi / 2)),
		}
	}
	return lut
}

func clip(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// linspace mirrors numpy.linspace(0, 1, n)
func linspace(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{0}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / float64(n-1)
	}
	out[n-1] = 1
	return out
}

// Colors returns n evenly spaced rainbow colours as css rgba strings
func Colors(n int) []string {
	out := make([]string, 0, n)
	for _, x := range linspace(n) {
		idx := int(x * lutSize)
		if idx > lutSize-1 {
			idx = lutSize - 1
		}
		c := rainbowLUT[idx]
		out = append(out, fmt.Sprintf("rgba(%d,%d,%d,1)", int(c[0]*255), int(c[1]*255), int(c[2]*255)))
	}
	return out
}
