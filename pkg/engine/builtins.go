package engine

import (
	"fmt"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/trimesh/pkg/kernel"
	"github.com/chazu/trimesh/pkg/kernel/sdfx"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms mesh script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: update-normals -> update_normals
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel.Solid so it can be passed between builtins.
type sexpSolid struct {
	solid kernel.Solid
	desc  string // constructor call, for printing
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid %s)", s.desc)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a kernel.Solid from a sexpSolid.
func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toFloats extracts exactly n numbers from args.
func toFloats(fn string, args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires exactly %d numeric arguments, got %d", fn, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

func sexpInt(n int) zygo.Sexp {
	return &zygo.SexpInt{Val: int64(n)}
}

// ---------------------------------------------------------------------------
// Mesh builder
// ---------------------------------------------------------------------------

// defaultMeshName names the mesh created when a script adds geometry before
// calling (mesh ...).
const defaultMeshName = "mesh"

// builder accumulates the meshes of one evaluation. Builtins append to the
// current mesh, which is the one most recently started with (mesh ...).
type builder struct {
	kernel kernel.Kernel
	meshes []*kernel.Mesh
	// uvs counts texture coordinates per mesh; a mesh either gives one for
	// every vertex or none at all.
	uvs []int
}

func newBuilder(k kernel.Kernel) *builder {
	return &builder{kernel: k}
}

// start begins a new mesh and makes it current.
func (b *builder) start(name string) *kernel.Mesh {
	m := &kernel.Mesh{PartName: name}
	b.meshes = append(b.meshes, m)
	b.uvs = append(b.uvs, 0)
	return m
}

// current returns the current mesh, starting a default one if needed.
func (b *builder) current() *kernel.Mesh {
	if len(b.meshes) == 0 {
		return b.start(defaultMeshName)
	}
	return b.meshes[len(b.meshes)-1]
}

// replace swaps the current mesh for m.
func (b *builder) replace(m *kernel.Mesh) {
	b.meshes[len(b.meshes)-1] = m
}

// addVertex appends p, with uv when given, to the current mesh.
func (b *builder) addVertex(p v3.Vec, uv *v2.Vec) (int, error) {
	m := b.current()
	last := len(b.uvs) - 1
	given := b.uvs[last]
	if (uv != nil && given != m.VertexCount()) || (uv == nil && given > 0) {
		return 0, fmt.Errorf("texture coordinates must be given for every vertex of mesh %q or for none", m.PartName)
	}
	if uv != nil {
		m.AddTexCoord(*uv)
		b.uvs[last]++
	}
	return m.AddVertex(p), nil
}

// addFace appends a triangle, reporting bad indices as errors instead of
// letting kernel.Mesh panic on them.
func (b *builder) addFace(v0, v1, v2 int) (int, error) {
	m := b.current()
	n := m.VertexCount()
	for slot, v := range [3]int{v0, v1, v2} {
		if v < 0 || v >= n {
			return 0, fmt.Errorf("vertex %d index %d out of range, mesh %q has %d vertices", slot, v, m.PartName, n)
		}
	}
	m.AddFace(v0, v1, v2)
	return m.TriangleCount() - 1, nil
}

// transform replaces the current mesh by its image under xf.
func (b *builder) transform(xf kernel.Affine) {
	b.replace(kernel.Transform(b.current(), xf))
}

// appendMesh copies src into the current mesh with its indices offset and
// derives normals for the result.
func (b *builder) appendMesh(src *kernel.Mesh) error {
	m := b.current()
	if b.uvs[len(b.uvs)-1] > 0 {
		return fmt.Errorf("mesh %q has texture coordinates; tessellated geometry has none", m.PartName)
	}
	offset := m.VertexCount()
	for i := 0; i < src.VertexCount(); i++ {
		m.AddVertex(src.Vertex(i))
	}
	for i := 0; i < src.TriangleCount(); i++ {
		f := src.Face(i)
		m.AddFace(offset+int(f[0]), offset+int(f[1]), offset+int(f[2]))
	}
	m.UpdateNormals()
	return nil
}

// result returns the built meshes.
func (b *builder) result() []*kernel.Mesh {
	if b.meshes == nil {
		return []*kernel.Mesh{}
	}
	return b.meshes
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the mesh builtins into a zygomys environment.
// They operate on b, populating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens and kebab-case names are in zygomys form.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (mesh "name")
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("mesh requires a name argument")
		}
		meshName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: name: %w", err)
		}
		b.start(meshName)
		return &zygo.SexpStr{S: meshName}, nil
	})

	// -----------------------------------------------------------------------
	// (vertex x y z :u 0.5 :v 1)
	// -----------------------------------------------------------------------
	env.AddFunction("vertex", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		xyz, err := toFloats("vertex", pa.positional, 3)
		if err != nil {
			return zygo.SexpNull, err
		}

		var uv *v2.Vec
		u, hasU := pa.kw["u"]
		v, hasV := pa.kw["v"]
		if hasU != hasV {
			return zygo.SexpNull, fmt.Errorf("vertex: :u and :v must be given together")
		}
		if hasU {
			uf, err := toFloat64(u)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vertex: u: %w", err)
			}
			vf, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vertex: v: %w", err)
			}
			uv = &v2.Vec{X: uf, Y: vf}
		}

		idx, err := b.addVertex(v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, uv)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vertex: %w", err)
		}
		return sexpInt(idx), nil
	})

	// -----------------------------------------------------------------------
	// (face a b c)
	// -----------------------------------------------------------------------
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("face requires exactly 3 vertex indices, got %d", len(args))
		}
		var idx [3]int
		for i, a := range args {
			n, err := toInt(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: index %d: %w", i+1, err)
			}
			idx[i] = n
		}
		f, err := b.addFace(idx[0], idx[1], idx[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		return sexpInt(f), nil
	})

	// -----------------------------------------------------------------------
	// (update-normals)
	// -----------------------------------------------------------------------
	env.AddFunction("update_normals", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m := b.current()
		m.UpdateNormals()
		return sexpInt(m.DegenerateFaceCount()), nil
	})

	// -----------------------------------------------------------------------
	// (vertex-count) (face-count)
	// -----------------------------------------------------------------------
	env.AddFunction("vertex_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return sexpInt(b.current().VertexCount()), nil
	})
	env.AddFunction("face_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return sexpInt(b.current().TriangleCount()), nil
	})

	// -----------------------------------------------------------------------
	// (translate x y z) transforms the current mesh.
	// (translate solid x y z) returns a moved solid.
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 4 {
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("translate: %w", err)
			}
			d, err := toFloats("translate", args[1:], 3)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{
				solid: b.kernel.Translate(s, d[0], d[1], d[2]),
				desc:  fmt.Sprintf("(translate %g %g %g)", d[0], d[1], d[2]),
			}, nil
		}
		d, err := toFloats("translate", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		b.transform(sdf.Translate3d(v3.Vec{X: d[0], Y: d[1], Z: d[2]}))
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (rotate x y z) transforms the current mesh; angles in degrees.
	// (rotate solid x y z) returns a rotated solid.
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 4 {
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
			}
			d, err := toFloats("rotate", args[1:], 3)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpSolid{
				solid: b.kernel.Rotate(s, d[0], d[1], d[2]),
				desc:  fmt.Sprintf("(rotate %g %g %g)", d[0], d[1], d[2]),
			}, nil
		}
		d, err := toFloats("rotate", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		b.transform(sdfx.EulerDegrees(d[0], d[1], d[2]))
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (scale x y z) transforms the current mesh.
	// -----------------------------------------------------------------------
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		d, err := toFloats("scale", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		b.transform(sdf.Scale3d(v3.Vec{X: d[0], Y: d[1], Z: d[2]}))
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (box x y z) (cylinder height radius)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		d, err := toFloats("box", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		for i, v := range d {
			if v <= 0 {
				return zygo.SexpNull, fmt.Errorf("box: dimension %d must be positive, got %g", i+1, v)
			}
		}
		return &sexpSolid{
			solid: b.kernel.Box(d[0], d[1], d[2]),
			desc:  fmt.Sprintf("(box %g %g %g)", d[0], d[1], d[2]),
		}, nil
	})
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		d, err := toFloats("cylinder", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		if d[0] <= 0 || d[1] <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: height and radius must be positive")
		}
		return &sexpSolid{
			solid: b.kernel.Cylinder(d[0], d[1], 0),
			desc:  fmt.Sprintf("(cylinder %g %g)", d[0], d[1]),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b) (difference a b) (intersection a b)
	// -----------------------------------------------------------------------
	booleans := map[string]func(a, b kernel.Solid) kernel.Solid{
		"union":        b.kernel.Union,
		"difference":   b.kernel.Difference,
		"intersection": b.kernel.Intersection,
	}
	for opName, op := range booleans {
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 2 solids, got %d", opName, len(args))
			}
			x, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: first: %w", opName, err)
			}
			y, err := toSolid(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: second: %w", opName, err)
			}
			return &sexpSolid{
				solid: op(x, y),
				desc:  fmt.Sprintf("(%s %s %s)", opName, args[0].SexpString(nil), args[1].SexpString(nil)),
			}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (tessellate solid) appends the solid's surface to the current mesh.
	// -----------------------------------------------------------------------
	env.AddFunction("tessellate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("tessellate requires a solid argument")
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tessellate: %w", err)
		}
		m, err := b.kernel.ToMesh(s)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tessellate: %w", err)
		}
		if err := b.appendMesh(m); err != nil {
			return zygo.SexpNull, fmt.Errorf("tessellate: %w", err)
		}
		return sexpInt(m.TriangleCount()), nil
	})
}
