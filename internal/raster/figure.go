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

package raster

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
)

// Height of the title bar above each panel of an analysis figure
const titleBarHeight = 24

// Places two images next to each other, left and right. The shorter one is
// padded with black at the bottom
func SideBySide(left, right *Image) *Image {
	height := left.Height
	if right.Height > height {
		height = right.Height
	}
	out := NewImage(left.Width+right.Width, height)
	for y := 0; y < height; y++ {
		dst := out.Data[y*out.Width*Channels:]
		if y < left.Height {
			copy(dst, left.Data[y*left.Width*Channels:(y+1)*left.Width*Channels])
		}
		if y < right.Height {
			copy(dst[left.Width*Channels:], right.Data[y*right.Width*Channels:(y+1)*right.Width*Channels])
		}
	}
	return out
}

// Renders original and restored image with titles in the top row and their
// side-by-side comparison in the bottom row. If maxWidth>0, the figure is
// scaled down to at most that width
func AnalysisFigure(original, restored *Image, restoredTitle string, maxWidth int) image.Image {
	cmp := SideBySide(original, restored)
	width, height := cmp.Width, 2*(titleBarHeight+cmp.Height)

	dc := gg.NewContext(width, height)
	dc.SetRGB255(255, 255, 255)
	dc.Clear()

	dc.DrawImage(original.ToRGBA(), 0, titleBarHeight)
	dc.DrawImage(restored.ToRGBA(), original.Width, titleBarHeight)
	dc.DrawImage(cmp.ToRGBA(), 0, 2*titleBarHeight+cmp.Height)

	dc.SetRGB255(0, 0, 0)
	dc.DrawStringAnchored("Original Corrupted Image", float64(original.Width)/2, titleBarHeight/2, 0.5, 0.5)
	dc.DrawStringAnchored(restoredTitle, float64(original.Width)+float64(restored.Width)/2, titleBarHeight/2, 0.5, 0.5)
	dc.DrawStringAnchored("Side-by-Side Comparison (Left: Original, Right: Restored)",
		float64(width)/2, float64(titleBarHeight+cmp.Height)+titleBarHeight/2, 0.5, 0.5)

	fig := dc.Image()
	if maxWidth > 0 && width > maxWidth {
		fig = resize.Resize(uint(maxWidth), 0, fig, resize.Lanczos3)
	}
	return fig
}
