package loader

import (
	"context"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/material"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// Source is the input of one pipeline stage: a single document entry and its index.
type Source[T any] struct {
	// Index is the entry's position in its document array.
	Index int

	// Value is the document entry being processed.
	Value *T

	// Document is the whole parsed document, read-only.
	Document *gltf.Document
}

// Stage is a set of optional hooks wrapped around the default processing of one resource kind.
//
// Preprocess runs first and may inspect the source. Process may replace the default
// processing: when it reports handled=true its result is used as is, otherwise the default
// runs. Postprocess sees the final result. A nil Stage, or a Stage with every field nil,
// runs the default alone.
type Stage[T, R any] struct {
	Preprocess  func(src Source[T])
	Process     func(ctx context.Context, src Source[T]) (result R, handled bool, err error)
	Postprocess func(src Source[T], result R)
}

// run wraps def with the stage hooks.
func (s *Stage[T, R]) run(ctx context.Context, src Source[T], def func(context.Context, Source[T]) (R, error)) (R, error) {
	if s == nil {
		return def(ctx, src)
	}

	if s.Preprocess != nil {
		s.Preprocess(src)
	}

	var (
		res     R
		handled bool
		err     error
	)
	if s.Process != nil {
		res, handled, err = s.Process(ctx, src)
		if err != nil {
			return res, err
		}
	}
	if !handled {
		res, err = def(ctx, src)
		if err != nil {
			return res, err
		}
	}

	if s.Postprocess != nil {
		s.Postprocess(src, res)
	}
	return res, nil
}

// Hooks customizes an import. Each field wraps one resource kind; nil fields keep the default
// behavior. Hooks for buffers, buffer views and images may run concurrently on pool workers
// and must be safe for that.
type Hooks struct {
	// Document runs after the document is parsed and before any resource is resolved.
	Document func(doc *gltf.Document)

	// Bundle runs on the finished bundle before it is returned.
	Bundle func(b model.ResourceBundle)

	Buffer     *Stage[gltf.Buffer, []byte]
	BufferView *Stage[gltf.BufferView, []byte]
	Image      *Stage[gltf.Image, *common.Image]
	Texture    *Stage[gltf.Texture, *common.Texture]
	Material   *Stage[gltf.Material, material.Material]
	Mesh       *Stage[gltf.Mesh, *model.Render]
	Skin       *Stage[gltf.Skin, *model.Skin]
	Animation  *Stage[gltf.Animation, *model.AnimationTrack]
	Node       *Stage[gltf.Node, model.Node]
}

// stageHooks returns h or an empty Hooks when h is nil, so callers can read fields freely.
func stageHooks(h *Hooks) *Hooks {
	if h == nil {
		return &Hooks{}
	}
	return h
}
