package coordmap

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/janpfeifer/curvewarp/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func TestBuildInvalidCanvas(t *testing.T) {
	t.Parallel()

	for _, dims := range [][2]int{{0, 10}, {10, 0}, {-3, 4}, {0, 0}} {
		cm, err := Build(context.Background(), dims[0], dims[1], projection.Convex, projection.Hemisphere)
		assert.ErrorIs(t, err, projection.ErrInvalidCanvas)
		assert.Nil(t, cm)
	}
}

func TestBuildMatchesMapper(t *testing.T) {
	t.Parallel()

	const width, height = 73, 41
	for _, variant := range projection.Variants {
		for _, convexity := range []projection.Convexity{projection.Concave, projection.Convex} {
			variant, convexity := variant, convexity
			t.Run(fmt.Sprintf("%s/%s", variant, convexity), func(t *testing.T) {
				t.Parallel()

				cm, err := Build(context.Background(), width, height, convexity, variant)
				require.NoError(t, err)
				require.Equal(t, width, cm.Width())
				require.Equal(t, height, cm.Height())
				require.Len(t, cm.SrcX, width*height)
				require.Len(t, cm.SrcY, width*height)

				mapper, err := projection.NewMapper(width, height, convexity, variant)
				require.NoError(t, err)
				clamped := 0
				for y := 0; y < height; y++ {
					for x := 0; x < width; x++ {
						want, inDomain := mapper.Map(mgl64.Vec2{float64(x), float64(y)})
						if !inDomain {
							clamped++
						}
						gotX, gotY := cm.At(x, y)
						require.Equal(t, float32(want.X()), gotX, "pixel (%d, %d)", x, y)
						require.Equal(t, float32(want.Y()), gotY, "pixel (%d, %d)", x, y)
					}
				}
				assert.Equal(t, clamped, cm.Clamped)
			})
		}
	}
}

func TestBuildIsFinite(t *testing.T) {
	t.Parallel()

	// Square convex cylinder: the left and right columns miss the surface.
	cm, err := Build(context.Background(), 100, 100, projection.Convex, projection.CylinderAlongY)
	require.NoError(t, err)
	assert.Greater(t, cm.Clamped, 0)
	for ii := range cm.SrcX {
		require.Truef(t, isFinite(cm.SrcX[ii]), "SrcX[%d]=%g", ii, cm.SrcX[ii])
		require.Truef(t, isFinite(cm.SrcY[ii]), "SrcY[%d]=%g", ii, cm.SrcY[ii])
	}

	// Center pixel maps to itself.
	x, y := cm.At(50, 50)
	assert.Equal(t, float32(50), x)
	assert.Equal(t, float32(50), y)
}

func TestBuildWorkerPartitions(t *testing.T) {
	t.Parallel()

	reference, err := Build(context.Background(), 57, 33, projection.Convex, projection.Hemisphere, WithWorkers(1))
	require.NoError(t, err)

	for _, workers := range []int{0, 2, 3, 16, 100} {
		for _, rows := range []int{0, 1, 5, 33, 1000} {
			cm, err := Build(context.Background(), 57, 33, projection.Convex, projection.Hemisphere,
				WithWorkers(workers), WithRowsPerTask(rows))
			require.NoError(t, err)
			assert.Equalf(t, reference.SrcX, cm.SrcX, "workers=%d rows=%d", workers, rows)
			assert.Equalf(t, reference.SrcY, cm.SrcY, "workers=%d rows=%d", workers, rows)
			assert.Equal(t, reference.Clamped, cm.Clamped)
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cm, err := Build(ctx, 64, 64, projection.Concave, projection.CylinderAlongX, WithWorkers(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, cm)
}

func TestBuildMapperOptions(t *testing.T) {
	t.Parallel()

	def, err := Build(context.Background(), 80, 40, projection.Concave, projection.Hemisphere)
	require.NoError(t, err)
	independent, err := Build(context.Background(), 80, 40, projection.Concave, projection.Hemisphere,
		WithMapperOptions(projection.WithIndependentHemisphereAxes()))
	require.NoError(t, err)
	assert.NotEqual(t, def.SrcY, independent.SrcY)
}

func BenchmarkBuild(b *testing.B) {
	for _, workers := range []int{1, 0} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, err := Build(context.Background(), 1920, 1080, projection.Convex, projection.Hemisphere,
					WithWorkers(workers))
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func TestNewAndIdentity(t *testing.T) {
	t.Parallel()

	_, err := New(0, 3)
	assert.ErrorIs(t, err, projection.ErrInvalidCanvas)

	cm, err := Identity(4, 3)
	require.NoError(t, err)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			sx, sy := cm.At(x, y)
			assert.Equal(t, float32(x), sx)
			assert.Equal(t, float32(y), sy)
		}
	}
}
