package job

import "github.com/chazu/cutplan/pkg/sketch"

func sketchBox(minZ, maxZ float64) sketch.Box {
	return sketch.NewBox(sketch.Vec3{Z: minZ}, sketch.Vec3{X: 10, Y: 10, Z: maxZ})
}
