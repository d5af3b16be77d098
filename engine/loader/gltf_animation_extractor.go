package loader

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	asset *gltfAsset
}

// gltfAnimationExtractor defines the interface for building animation tracks from a parsed document.
//
// Sampler inputs and outputs are read once and referenced by index from every curve that
// uses them. Morph weight channels are split into one curve per target, and rotation curves
// are made sign-continuous so interpolation takes the short path.
type gltfAnimationExtractor interface {
	// ExtractAllAnimations builds every animation in document order.
	//
	// Parameters:
	//   - ctx: the import context
	//
	// Returns:
	//   - []*model.AnimationTrack: one track per document animation
	//   - error: error if a sampler or channel is malformed
	ExtractAllAnimations(ctx context.Context) ([]*model.AnimationTrack, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates an animation extractor for an asset.
func newGLTFAnimationExtractor(asset *gltfAsset) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{asset: asset}
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations(ctx context.Context) ([]*model.AnimationTrack, error) {
	doc := e.asset.doc
	tracks := make([]*model.AnimationTrack, len(doc.Animations))
	for i := range doc.Animations {
		src := Source[gltf.Animation]{Index: i, Value: &doc.Animations[i], Document: doc}
		t, err := e.asset.hooks.Animation.run(ctx, src, e.buildTrack)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		tracks[i] = t
	}
	return tracks, nil
}

func interpolationOf(s string) (model.Interpolation, error) {
	switch s {
	case "", gltf.InterpolationLinear:
		return model.InterpolationLinear, nil
	case gltf.InterpolationStep:
		return model.InterpolationStep, nil
	case gltf.InterpolationCubicSpline:
		return model.InterpolationCubicSpline, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q", s)
}

// samplerSlots records where a sampler's arrays were stored in the track.
type samplerSlots struct {
	input, output int
	interpolation model.Interpolation
}

// buildTrack is the default animation stage.
func (e *gltfAnimationExtractorImpl) buildTrack(_ context.Context, src Source[gltf.Animation]) (*model.AnimationTrack, error) {
	anim := src.Value
	track := &model.AnimationTrack{Name: anim.Name}
	track.Name = common.IndexedName(track.Name, "animation", src.Index)

	inputs := make(map[int]int)
	outputs := make(map[int]int)
	slots := make([]samplerSlots, len(anim.Samplers))
	for s, smp := range anim.Samplers {
		interp, err := interpolationOf(smp.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("sampler %d: %w", s, err)
		}

		in, ok := inputs[smp.Input]
		if !ok {
			times, err := e.asset.readFloats(smp.Input, 1)
			if err != nil {
				return nil, fmt.Errorf("sampler %d input: %w", s, err)
			}
			in = len(track.Inputs)
			inputs[smp.Input] = in
			track.Inputs = append(track.Inputs, times)
		}

		out, ok := outputs[smp.Output]
		if !ok {
			d, err := e.asset.readAccessor(smp.Output, false)
			if err != nil {
				return nil, fmt.Errorf("sampler %d output: %w", s, err)
			}
			out = len(track.Outputs)
			outputs[smp.Output] = out
			track.Outputs = append(track.Outputs, model.AnimationOutput{Components: d.components, Data: d.floats()})
		}
		slots[s] = samplerSlots{input: in, output: out, interpolation: interp}
	}

	curveBySampler := make(map[int]int)
	continuous := make(map[int]model.Interpolation)
	for c, ch := range anim.Channels {
		if ch.Target.Node == nil {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(slots) {
			return nil, fmt.Errorf("channel %d: sampler %d out of range", c, ch.Sampler)
		}
		node := *ch.Target.Node
		slot := slots[ch.Sampler]

		if ch.Target.Path == gltf.PathWeights {
			curves, err := e.splitWeights(track, node, slot)
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", c, err)
			}
			track.Curves = append(track.Curves, curves...)
			continue
		}

		target := model.AnimationTarget{Node: node, Path: ch.Target.Path}
		if idx, ok := curveBySampler[ch.Sampler]; ok {
			track.Curves[idx].Targets = append(track.Curves[idx].Targets, target)
		} else {
			curveBySampler[ch.Sampler] = len(track.Curves)
			track.Curves = append(track.Curves, model.AnimationCurve{
				Targets:       []model.AnimationTarget{target},
				Input:         slot.input,
				Output:        slot.output,
				Interpolation: slot.interpolation,
			})
		}

		if ch.Target.Path == gltf.PathRotation && slot.interpolation != model.InterpolationStep {
			continuous[slot.output] = slot.interpolation
		}
	}

	for out, interp := range continuous {
		if track.Outputs[out].Components == 4 {
			makeQuatsContinuous(track.Outputs[out].Data, interp == model.InterpolationCubicSpline)
		}
	}

	compactOutputs(track)

	for _, in := range track.Inputs {
		for _, t := range in {
			track.Duration = max(track.Duration, t)
		}
	}
	return track, nil
}

// splitWeights turns one interleaved morph weight output into one single-weight output and
// curve per morph target.
func (e *gltfAnimationExtractorImpl) splitWeights(track *model.AnimationTrack, node int, slot samplerSlots) ([]model.AnimationCurve, error) {
	doc := e.asset.doc
	if node < 0 || node >= len(doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", node)
	}

	var names []string
	targets := 0
	if m := doc.Nodes[node].Mesh; m != nil && *m >= 0 && *m < len(doc.Meshes) {
		mesh := &doc.Meshes[*m]
		names = mesh.TargetNames()
		if len(mesh.Primitives) > 0 {
			targets = len(mesh.Primitives[0].Targets)
		}
	}

	keys := len(track.Inputs[slot.input])
	combined := track.Outputs[slot.output].Data
	parts := 1
	if slot.interpolation == model.InterpolationCubicSpline {
		parts = 3
	}
	if keys == 0 {
		return nil, nil
	}
	if targets == 0 {
		targets = len(combined) / (keys * parts)
	}
	if targets == 0 || len(combined) < keys*parts*targets {
		return nil, fmt.Errorf("weights output has %d values for %d keys", len(combined), keys)
	}

	curves := make([]model.AnimationCurve, targets)
	for t := range targets {
		data := make([]float32, keys*parts)
		for k := range keys {
			for p := range parts {
				data[k*parts+p] = combined[(k*parts+p)*targets+t]
			}
		}

		name := strconv.Itoa(t)
		if t < len(names) && names[t] != "" {
			name = names[t]
		}
		curves[t] = model.AnimationCurve{
			Targets:       []model.AnimationTarget{{Node: node, Path: gltf.PathWeights + "." + name}},
			Input:         slot.input,
			Output:        len(track.Outputs),
			Interpolation: slot.interpolation,
		}
		track.Outputs = append(track.Outputs, model.AnimationOutput{Components: 1, Data: data})
	}
	return curves, nil
}

// makeQuatsContinuous negates every quaternion whose dot product with the previous one is
// negative, so consecutive keys rotate the short way. Stored as xyzw. For cubic splines the
// values sit between their tangents and a flipped value takes its tangents with it.
func makeQuatsContinuous(data []float32, cubic bool) {
	step, first := 4, 0
	if cubic {
		step, first = 12, 4
	}

	quat := func(off int) mgl32.Quat {
		return mgl32.Quat{W: data[off+3], V: mgl32.Vec3{data[off], data[off+1], data[off+2]}}
	}

	for off := first + step; off+4 <= len(data); off += step {
		if quat(off-step).Dot(quat(off)) >= 0 {
			continue
		}
		lo, hi := off, off+4
		if cubic {
			lo, hi = off-4, off+8
		}
		for i := lo; i < hi && i < len(data); i++ {
			data[i] = -data[i]
		}
	}
}

// compactOutputs drops outputs no curve references and renumbers the curves.
func compactOutputs(track *model.AnimationTrack) {
	remap := make([]int, len(track.Outputs))
	for i := range remap {
		remap[i] = -1
	}
	var kept []model.AnimationOutput
	for i := range track.Curves {
		c := &track.Curves[i]
		if remap[c.Output] < 0 {
			remap[c.Output] = len(kept)
			kept = append(kept, track.Outputs[c.Output])
		}
		c.Output = remap[c.Output]
	}
	track.Outputs = kept
}
