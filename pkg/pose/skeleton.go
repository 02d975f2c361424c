// pkg/pose/skeleton.go
package pose

// H36M joint indices for the 17-joint Human3.6M skeleton produced by the
// 3D estimator.
const (
	MHip = iota
	RHip
	RKnee
	RAnkle
	LHip
	LKnee
	LAnkle
	Spine
	Neck
	Nose
	Head
	LShoulder
	LElbow
	LWrist
	RShoulder
	RElbow
	RWrist

	NumJoints = 17
)

// JointNames lists the H36M joint names in index order.
var JointNames = []string{
	"MHip", "RHip", "RKnee", "RAnkle", "LHip", "LKnee", "LAnkle",
	"Spine", "Neck", "Nose", "Head", "LShoulder", "LElbow", "LWrist",
	"RShoulder", "RElbow", "RWrist",
}

// Parents maps each joint to its parent in the kinematic tree, -1 for the
// root.
var Parents = []int{-1, 0, 1, 2, 0, 4, 5, 0, 7, 8, 9, 8, 11, 12, 8, 14, 15}

// Bone is a parent-child joint pair.
type Bone struct {
	Joint  int
	Parent int
}

// Bones returns the skeleton's bones (every joint with a parent).
func Bones() []Bone {
	bones := make([]Bone, 0, NumJoints-1)
	for j, p := range Parents {
		if p >= 0 {
			bones = append(bones, Bone{Joint: j, Parent: p})
		}
	}
	return bones
}

// COCO-17 keypoint indices used by the 2D detector output.
const (
	CocoNose = iota
	CocoLEye
	CocoREye
	CocoLEar
	CocoREar
	CocoLShoulder
	CocoRShoulder
	CocoLElbow
	CocoRElbow
	CocoLWrist
	CocoRWrist
	CocoLHip
	CocoRHip
	CocoLKnee
	CocoRKnee
	CocoLAnkle
	CocoRAnkle

	CocoNumJoints = 17
)
