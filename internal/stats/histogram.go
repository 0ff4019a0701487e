// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package stats

// Number of bins in an 8-bit histogram
const Bins = 256

// Calculate the 8-bit histogram of the given data
func Histogram256(data []uint8) (bins [Bins]int32) {
	for _, d := range data {
		bins[d]++
	}
	return bins
}

// Returns the location and the value of the histogram peak.
// The first bin wins ties
func GetPeak(bins *[Bins]int32) (x int, y int32) {
	x, y = 0, bins[0]
	for i, v := range bins {
		if v > y {
			x, y = i, v
		}
	}
	return x, y
}

// Number of non-empty bins
func Occupied(bins *[Bins]int32) int {
	n := 0
	for _, v := range bins {
		if v != 0 {
			n++
		}
	}
	return n
}

// Clips all bins to the given limit and spreads the clipped excess evenly
// over all bins. The remainder is distributed one by one at regular steps
// starting from bin 0. Total count is preserved
func ClipHistogram(bins *[Bins]int32, limit int32) {
	if limit <= 0 {
		return
	}
	clipped := int32(0)
	for i, v := range bins {
		if v > limit {
			clipped += v - limit
			bins[i] = limit
		}
	}
	if clipped == 0 {
		return
	}

	batch := clipped / Bins
	residual := clipped - batch*Bins
	for i := range bins {
		bins[i] += batch
	}
	if residual > 0 {
		step := int32(Bins) / residual
		if step < 1 {
			step = 1
		}
		for i := int32(0); i < Bins && residual > 0; i, residual = i+step, residual-1 {
			bins[i]++
		}
	}
}

// Builds an equalization lookup table from the cumulative histogram,
// mapping a count of total to the full 8-bit range. Rounds half up in integers
func EqualizationLUT(bins *[Bins]int32, total int) (lut [Bins]uint8) {
	if total <= 0 {
		return IdentityLUT()
	}
	sum, t := int64(0), int64(total)
	for i, v := range bins {
		sum += int64(v)
		val := (sum*(Bins-1) + t/2) / t
		if val > Bins-1 {
			val = Bins - 1
		}
		lut[i] = uint8(val)
	}
	return lut
}

// A lookup table mapping every level onto itself
func IdentityLUT() (lut [Bins]uint8) {
	for i := range lut {
		lut[i] = uint8(i)
	}
	return lut
}
