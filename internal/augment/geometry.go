package augment

// fit describes how an arbitrary frame is brought to a square canvas: resize
// so the longest side equals the target, then pad the short side with a black
// border, split as evenly as possible.
type fit struct {
	ResizeW, ResizeH  int
	PadTop, PadBottom int
	PadLeft, PadRight int
}

// fitLongest computes the resize and padding needed to place a w×h frame on a
// max×max square. The aspect ratio is preserved by the resize; the padding
// absorbs the remainder.
func fitLongest(w, h, max int) fit {
	var f fit
	if w >= h {
		f.ResizeW = max
		f.ResizeH = h * max / w
		if f.ResizeH < 1 {
			f.ResizeH = 1
		}
	} else {
		f.ResizeH = max
		f.ResizeW = w * max / h
		if f.ResizeW < 1 {
			f.ResizeW = 1
		}
	}

	padH := max - f.ResizeH
	padW := max - f.ResizeW
	f.PadTop = padH / 2
	f.PadBottom = padH - f.PadTop
	f.PadLeft = padW / 2
	f.PadRight = padW - f.PadLeft
	return f
}
