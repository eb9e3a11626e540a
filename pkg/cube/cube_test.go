package cube

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"volraycast/pkg/transform"
)

func diagonalPose() transform.Pose {
	// looks straight down the (1,1,1) diagonal
	tr := transform.New(32, 32, 32, 256, 256)
	tr.SetView(45, -35.26438968, 0)
	return tr.Pose()
}

func segmentsCross(a, b, c, d mgl64.Vec3) bool {
	orient := func(p, q, r mgl64.Vec3) float64 {
		return (q[0]-p[0])*(r[1]-p[1]) - (q[1]-p[1])*(r[0]-p[0])
	}
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func TestEdgeTopology(t *testing.T) {
	seen := make(map[[2]int]bool)
	for _, e := range Edges {
		if e[0]+e[1] == 7 {
			t.Errorf("Edge %v joins opposite corners", e)
		}
		d := unit[e[0]].Sub(unit[e[1]])
		if d.Dot(d) != 1 {
			t.Errorf("Edge %v is not an axis-aligned unit edge", e)
		}
		seen[e] = true
	}
	if len(seen) != 12 {
		t.Errorf("Expected 12 distinct edges, got %d", len(seen))
	}
}

// TestHexagonOrdering checks that the sorted clip polygon is simple
func TestHexagonOrdering(t *testing.T) {
	c := New(32, 32, 32)
	c.Transform(diagonalPose())

	raw := c.FindIntersections(0)
	if len(raw) != 6 {
		t.Fatalf("Expected 6 intersections, got %d", len(raw))
	}

	poly := c.IntersectionPolygon(0)
	n := len(poly)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsCross(poly[i], poly[(i+1)%n], poly[j], poly[(j+1)%n]) {
				t.Errorf("Edges %d and %d of the clip polygon intersect", i, j)
			}
		}
	}
}

// TestShuffledIntersectionsSorted checks the ordering on a deliberately crossed input
func TestShuffledIntersectionsSorted(t *testing.T) {
	square := []mgl64.Vec3{{0, 0, 0}, {1, 1, 0}, {1, 0, 0}, {0, 1, 0}}
	poly := SortByAngle(square)
	if segmentsCross(poly[0], poly[1], poly[2], poly[3]) || segmentsCross(poly[1], poly[2], poly[3], poly[0]) {
		t.Errorf("Expected simple polygon, got %v", poly)
	}
}

func TestNoIntersectionsDegenerates(t *testing.T) {
	c := New(16, 16, 16)
	c.Transform(diagonalPose())

	pts := c.FindIntersections(1e6)
	if len(pts) != 1 {
		t.Fatalf("Expected a single degenerate point, got %d points", len(pts))
	}
}

func TestIntersectionsDeduplicated(t *testing.T) {
	tr := transform.New(16, 16, 16, 128, 128)
	c := New(16, 16, 16)
	c.Transform(tr.Pose())

	// identity pose: the plane through the front face touches 4 corners,
	// each shared by three edges
	front := c.Corner(0)[2]
	pts := c.FindIntersections(front)
	if len(pts) != 4 {
		t.Errorf("Expected 4 unique intersections on the front face, got %d", len(pts))
	}
}

func TestIsInside(t *testing.T) {
	c := New(32, 32, 32)
	c.Transform(diagonalPose())

	if !c.IsInside(128, 128) {
		t.Errorf("Expected screen centre inside the cube")
	}
	if c.IsInside(0, 0) || c.IsInside(250, 5) {
		t.Errorf("Expected viewport corners outside the cube")
	}
}

func TestScreenBounds(t *testing.T) {
	tr := transform.New(20, 10, 4, 100, 100)
	c := New(20, 10, 4)
	c.Transform(tr.Pose())

	b := c.ScreenBounds(100, 100)
	if b.XMin != 40 || b.XMax != 60 || b.YMin != 45 || b.YMax != 55 {
		t.Errorf("Expected bounds x 40..60 y 45..55, got %+v", b)
	}
	if b.ZMin != -2 || b.ZMax != 2 {
		t.Errorf("Expected z range -2..2, got %f..%f", b.ZMin, b.ZMax)
	}

	tr.SetMouseMovementOffset(1000, 0)
	c.Transform(tr.Pose())
	if !c.ScreenBounds(100, 100).Empty() {
		t.Errorf("Expected empty bounds when panned off screen")
	}
}

func TestSliceIntersections(t *testing.T) {
	tr := transform.New(16, 16, 16, 128, 128)
	c := New(16, 16, 16)
	c.Transform(tr.Pose())

	// xy quad lies in the plane z=0 and is parallel to it
	if pts := c.SliceIntersections(XY, 0); len(pts) != 0 {
		t.Errorf("Expected no crossing for a coplanar quad, got %d", len(pts))
	}
	if pts := c.SliceIntersections(YZ, 0); len(pts) != 2 {
		t.Errorf("Expected 2 crossings for the yz quad, got %d", len(pts))
	}
}
