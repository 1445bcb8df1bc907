package sketch

// Kind enumerates the operation types a sketch can hold.
type Kind int

const (
	KindSinglePoint         Kind = iota // free point at (x, y)
	KindEndLinePoint                    // base point + angle + length
	KindAlongLinePoint                  // distance along a line from its first point
	KindNormalPoint                     // distance along the normal of a line
	KindPointOfIntersection             // x of one point, y of another
	KindLineIntersectPoint              // crossing of two lines
	KindLine                            // segment between two points
	KindSimpleSpline                    // cubic curve from angles and lengths
)

func (k Kind) String() string {
	switch k {
	case KindSinglePoint:
		return "single-point"
	case KindEndLinePoint:
		return "end-line-point"
	case KindAlongLinePoint:
		return "along-line-point"
	case KindNormalPoint:
		return "normal-point"
	case KindPointOfIntersection:
		return "point-of-intersection"
	case KindLineIntersectPoint:
		return "line-intersect-point"
	case KindLine:
		return "line"
	case KindSimpleSpline:
		return "simple-spline"
	default:
		return "unknown"
	}
}

// IsPoint reports whether operations of this kind produce a point.
func (k Kind) IsPoint() bool {
	return k >= KindSinglePoint && k <= KindLineIntersectPoint
}
