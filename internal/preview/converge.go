package preview

import (
	"context"
	"runtime"

	"mini-planet/internal/terrain"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

const ErrTypeNotConverged = "not-converged"

// Converge ticks o at viewpoint until no drain cycle is in progress and
// returns the number of ticks taken.
func Converge(ctx context.Context, o *terrain.Orchestrator, viewpoint mgl64.Vec3, maxTicks int) (int, error) {
	for i := 1; i <= maxTicks; i++ {
		if err := ctx.Err(); err != nil {
			return i - 1, errors.New("convergence interrupted").Wrap(err)
		}
		if err := o.Update(viewpoint); err != nil {
			return i, err
		}
		if !o.Busy() {
			return i, nil
		}
		// lets async tile builds make progress
		runtime.Gosched()
	}
	return maxTicks, errors.New("terrain did not converge").
		WithType(ErrTypeNotConverged).
		WithTag("ticks", maxTicks)
}

// NewReport summarizes the converged state of o.
func NewReport(o *terrain.Orchestrator, ticks int) Report {
	vp, _ := o.Viewpoint()
	faces, sizes := Summarize(o.Leaves())
	return Report{
		Viewpoint: [3]float64{vp.X(), vp.Y(), vp.Z()},
		Ticks:     ticks,
		Stats:     o.Stats(),
		Faces:     faces,
		Sizes:     sizes,
	}
}
