// pkg/pose/camera.go
package pose

// worldOrientation is the fixed camera extrinsic used to bring estimator
// output from camera space into world coordinates, as (w, x, y, z).
var worldOrientation = Quaternion{0.1407056450843811, -0.1500701755285263, -0.755240797996521, 0.6223280429840088}

// Quaternion is a unit rotation quaternion (w, x, y, z).
type Quaternion struct {
	W, X, Y, Z float64
}

// Rotate applies the rotation to a point.
func (q Quaternion) Rotate(p Point) Point {
	u := Point{q.X, q.Y, q.Z}
	uv := u.Cross(p)
	uuv := u.Cross(uv)
	return p.Add(uv.Scale(2 * q.W)).Add(uuv.Scale(2))
}

// CameraToWorld rotates every joint of the sequence into world coordinates
// and rebases the height so the lowest point touches the ground. The
// trajectory is unknown, so only orientation and height are recovered.
func CameraToWorld(s *Sequence) *Sequence {
	out := NewSequence(s.Len(), s.Joints(), s.FPS)
	minZ := 0.0
	first := true
	for i, f := range s.Frames {
		for j, p := range f {
			w := worldOrientation.Rotate(p)
			out.Frames[i][j] = w
			if first || w[2] < minZ {
				minZ = w[2]
				first = false
			}
		}
	}
	for _, f := range out.Frames {
		for j := range f {
			f[j][2] -= minZ
		}
	}
	return out
}
