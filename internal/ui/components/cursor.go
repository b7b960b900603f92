package components

// cursor tracks a selection and scroll offset over n rows, of which only
// `visible` fit on screen
type cursor struct {
	Selected int
	Offset   int
}

// keyMove maps navigation keys to a cursor movement. It reports false for
// keys it does not handle.
func (c *cursor) keyMove(key string, n, visible int) bool {
	switch key {
	case "up", "k":
		c.move(-1, n, visible)
	case "down", "j":
		c.move(1, n, visible)
	case "pgup":
		c.move(-visible, n, visible)
	case "pgdown":
		c.move(visible, n, visible)
	case "home", "g":
		c.move(-n, n, visible)
	case "end", "G":
		c.move(n, n, visible)
	default:
		return false
	}
	return true
}

func (c *cursor) move(delta, n, visible int) {
	c.Selected += delta
	c.clamp(n, visible)
}

// clamp keeps Selected within [0, n) and scrolls it into view
func (c *cursor) clamp(n, visible int) {
	if c.Selected >= n {
		c.Selected = n - 1
	}
	if c.Selected < 0 {
		c.Selected = 0
	}
	if visible < 1 {
		visible = 1
	}
	if c.Selected < c.Offset {
		c.Offset = c.Selected
	} else if c.Selected >= c.Offset+visible {
		c.Offset = c.Selected - visible + 1
	}
}

// window returns the half-open range of rows to draw
func (c cursor) window(n, visible int) (int, int) {
	end := min(c.Offset+visible, n)
	return c.Offset, end
}
