package timeline

// View mutations change presentation state only. They still bump the revision
// so observers repaint, but the store keeps them off the undo stack.

func (d Document) SetPlayhead(t float64) (Document, error) {
	if t < 0 {
		return d, invalidf("playhead %v before timeline origin", t)
	}
	d.View.Playhead = t
	return d.bump(), nil
}

// SetWorkArea sets or clears (nil, nil) the render/loop range.
func (d Document) SetWorkArea(in, out *float64) (Document, error) {
	if (in == nil) != (out == nil) {
		return d, invalidf("work area needs both edges or neither")
	}
	if in != nil {
		if *in < 0 || *out <= *in {
			return d, invalidf("work area [%v,%v] inverted or before origin", *in, *out)
		}
		i, o := *in, *out
		d.View.WorkIn, d.View.WorkOut = &i, &o
	} else {
		d.View.WorkIn, d.View.WorkOut = nil, nil
	}
	return d.bump(), nil
}

// SetZoom sets the horizontal scale in pixels per second.
func (d Document) SetZoom(pxPerSecond float64) (Document, error) {
	if pxPerSecond <= 0 {
		return d, invalidf("zoom must be positive")
	}
	d.View.Zoom = pxPerSecond
	return d.bump(), nil
}

func (d Document) SetScroll(x, y float64) Document {
	d.View.ScrollX = x
	d.View.ScrollY = y
	return d.bump()
}

func (d Document) SetPlaying(playing bool) Document {
	d.View.Playing = playing
	return d.bump()
}

// SetSnapEnabled flips the global snap toggle. Sessions additionally honor a
// momentary modifier that inverts whatever this is set to.
func (d Document) SetSnapEnabled(enabled bool) Document {
	d.View.SnapEnabled = enabled
	return d.bump()
}

// SetCutTool enters or leaves razor mode.
func (d Document) SetCutTool(active bool) Document {
	d.View.CutTool = active
	return d.bump()
}
