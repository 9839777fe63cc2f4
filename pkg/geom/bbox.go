package geom

// BBox is an axis-aligned bounding box. Producers construct it with
// BBoxOf or NewBBox, which order the corners; the zero value is an
// empty box at the origin.
type BBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// NewBBox returns a BBox spanning the two given corners, with Min and
// Max normalized component-wise.
func NewBBox(a, b Vec3) BBox {
	return BBox{Min: a.Min(b), Max: a.Max(b)}
}

// BBoxOf returns the smallest BBox containing all points. An empty
// point list yields the zero box.
func BBoxOf(points ...Vec3) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	box := BBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box
}

// Union returns the smallest BBox containing both boxes.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		Min: b.Min.Min(other.Min),
		Max: b.Max.Max(other.Max),
	}
}

// Center returns the midpoint of the box.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

// Translate returns the box shifted by offset.
func (b BBox) Translate(offset Vec3) BBox {
	return BBox{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// AlmostEqual reports whether both corners of the two boxes are within
// tolerance of each other.
func (b BBox) AlmostEqual(other BBox, tolerance float64) bool {
	return AlmostEqual(b.Min, other.Min, tolerance) &&
		AlmostEqual(b.Max, other.Max, tolerance)
}
