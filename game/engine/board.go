package engine

// Segment is a block of consecutive board positions ending in a checkpoint
type Segment struct {
	Index       int   `json:"index"`
	Positions   []int `json:"positions"`
	EndPosition int   `json:"end_position"`
}

// boardSegments is the fixed track: seven segments of four cells covering 1..28
var boardSegments = buildSegments()

func buildSegments() []Segment {
	count := FinalPosition / SegmentLength
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		start := i*SegmentLength + FirstPosition
		positions := make([]int, SegmentLength)
		for j := range positions {
			positions[j] = start + j
		}
		segments = append(segments, Segment{
			Index:       i,
			Positions:   positions,
			EndPosition: start + SegmentLength - 1,
		})
	}
	return segments
}

// SegmentOf returns the segment containing position.
// The second result is false when position is off the board.
func SegmentOf(position int) (Segment, bool) {
	if position < FirstPosition || position > FinalPosition {
		return Segment{}, false
	}
	return boardSegments[(position-FirstPosition)/SegmentLength], true
}

// IsEndpoint reports whether position is the last cell of its segment
func IsEndpoint(position int) bool {
	segment, ok := SegmentOf(position)
	return ok && segment.EndPosition == position
}

// Endpoints lists every segment end position in board order
func Endpoints() []int {
	ends := make([]int, len(boardSegments))
	for i, segment := range boardSegments {
		ends[i] = segment.EndPosition
	}
	return ends
}

// Segments returns a copy of the segment table, safe for callers to modify
func Segments() []Segment {
	out := make([]Segment, len(boardSegments))
	for i, segment := range boardSegments {
		out[i] = Segment{
			Index:       segment.Index,
			Positions:   append([]int(nil), segment.Positions...),
			EndPosition: segment.EndPosition,
		}
	}
	return out
}
