// Package app bridges the script engine to a frontend viewer. It turns
// evaluation output into JSON payloads a renderer can upload as they are.
package app

import (
	"fmt"

	"github.com/chazu/trimesh/pkg/config"
	"github.com/chazu/trimesh/pkg/engine"
	"github.com/chazu/trimesh/pkg/kernel"
	"github.com/chazu/trimesh/pkg/kernel/sdfx"
	"github.com/chazu/trimesh/pkg/logging"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App owns the engine that evaluates scripts.
type App struct {
	engine *engine.Engine
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices  []float32  `json:"vertices"`
	Normals   []float32  `json:"normals,omitempty"`
	TexCoords []float32  `json:"texCoords,omitempty"`
	Indices   []uint32   `json:"indices"`
	PartName  string     `json:"partName"`
	Color     string     `json:"color"`
	BoundsMin [3]float64 `json:"boundsMin"`
	BoundsMax [3]float64 `json:"boundsMax"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// New configures logging from cfg and returns an App backed by the sdfx
// kernel.
func New(cfg config.Config) *App {
	logging.Configure(cfg.Log)
	k := sdfx.NewWithConfig(cfg.Kernel)
	return &App{engine: engine.NewEngine(k, cfg.Engine.Timeout.Std())}
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	meshes, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		logging.Error("app: evaluate: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, m := range meshes {
		if m.IsEmpty() {
			logging.Debug("app: skipping empty mesh %q", m.PartName)
			continue
		}
		if n := m.DegenerateFaceCount(); n > 0 {
			result.Warnings = append(result.Warnings, EvalErrorData{
				Message: fmt.Sprintf("mesh %q: %d degenerate faces", m.PartName, n),
			})
		}
		color := colorPalette[len(result.Meshes)%len(colorPalette)]
		result.Meshes = append(result.Meshes, toMeshData(m, color))
	}

	return result
}

// toMeshData converts m to the frontend format. The buffers alias m.
func toMeshData(m *kernel.Mesh, color string) MeshData {
	b := m.Buffers()
	min, max := m.BoundingBox()
	return MeshData{
		Vertices:  b.Vertices,
		Normals:   b.Normals,
		TexCoords: b.TexCoords,
		Indices:   b.Indices,
		PartName:  m.PartName,
		Color:     color,
		BoundsMin: [3]float64{min.X, min.Y, min.Z},
		BoundsMax: [3]float64{max.X, max.Y, max.Z},
	}
}
