package collector

import "fmt"

// CursorMode is the pagination position kind.
type CursorMode int

const (
	// CursorUnset means no page has been read yet.
	CursorUnset CursorMode = iota
	// CursorAdvancing continues after the last item of the current page.
	CursorAdvancing
	// CursorAnchored pins pagination to the first item ever seen.
	CursorAnchored
)

func (m CursorMode) String() string {
	switch m {
	case CursorUnset:
		return "unset"
	case CursorAdvancing:
		return "advancing"
	case CursorAnchored:
		return "anchored"
	}
	return fmt.Sprintf("CursorMode(%d)", int(m))
}

// CursorState tracks the pagination position of one collection run.
// Exactly one token is active; once anchored the state never advances again.
type CursorState struct {
	mode  CursorMode
	token string
}

// Mode returns the current mode.
func (c *CursorState) Mode() CursorMode { return c.mode }

// After returns the forward token, empty unless advancing.
func (c *CursorState) After() string {
	if c.mode == CursorAdvancing {
		return c.token
	}
	return ""
}

// Before returns the anchor token, empty unless anchored.
func (c *CursorState) Before() string {
	if c.mode == CursorAnchored {
		return c.token
	}
	return ""
}

// Advance moves the forward token. It fails once the cursor is anchored.
func (c *CursorState) Advance(token string) error {
	if c.mode == CursorAnchored {
		return fmt.Errorf("cursor is anchored at %s", c.token)
	}
	c.mode = CursorAdvancing
	c.token = token
	return nil
}

// Anchor switches to the anchored mode. Anchoring twice keeps the first anchor.
func (c *CursorState) Anchor(token string) {
	if c.mode == CursorAnchored {
		return
	}
	c.mode = CursorAnchored
	c.token = token
}

// String renders the state for logs.
func (c *CursorState) String() string {
	if c.mode == CursorUnset {
		return "unset"
	}
	return c.mode.String() + ":" + c.token
}
