package stream

// ParseState is the stitching state of a [Parser].
type ParseState int

// Parse states.
const (
	// Initial holds until the first delivery has been handled.
	Initial ParseState = iota
	// Stitching means the pending buffer holds the head of a chunk. It is
	// left only by a successful decode or a non-stitching failure.
	Stitching
	// Steady means the last delivery was handled without stitching.
	Steady
)

func (s ParseState) String() string {
	switch s {
	case Initial:
		return "Initial"
	case Stitching:
		return "Stitching"
	case Steady:
		return "Steady"
	default:
		return "Unknown"
	}
}
