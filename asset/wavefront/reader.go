// Package wavefront loads OBJ models and their MTL material libraries
// into the render-time scene representation.
package wavefront

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ajgappmark/RGK/asset/texture"
	"github.com/ajgappmark/RGK/brdf"
	"github.com/ajgappmark/RGK/log"
	"github.com/ajgappmark/RGK/scene"
	"github.com/ajgappmark/RGK/types"
)

// Options tune how a model is turned into scene data.
type Options struct {
	// BRDF assigned to scattering materials: one of
	// diffuse, phong, phongenergy, ltcbeckmann.
	Brdf string
}

type wavefrontMaterial struct {
	Name string

	Ka types.Vec3
	Kd types.Vec3
	Ks types.Vec3
	Ke types.Vec3

	// Phong exponent.
	Ns float32

	// Index of refraction.
	Ni float32

	// Dissolve; 1 is fully opaque.
	D float32

	KaTex   string
	KdTex   string
	KsTex   string
	BumpTex string
}

// A parsed face corner: indices into the vertex, uv and normal lists,
// -1 when absent.
type faceCorner struct {
	v, uv, n int
}

type face struct {
	corners  [3]faceCorner
	material int
}

type reader struct {
	logger log.Logger

	baseDir string

	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	materials      []*wavefrontMaterial
	matNameToIndex map[string]int
	curMaterial    int

	faces []face
}

// Load parses an OBJ model with its material libraries and returns an
// uncommitted scene holding its triangles and materials. Texture paths
// resolve relative to the file that references them.
func Load(path string, opt Options) (*scene.Scene, error) {
	r := &reader{
		logger:         log.New("wavefront"),
		baseDir:        filepath.Dir(path),
		matNameToIndex: make(map[string]int),
		curMaterial:    -1,
	}

	r.logger.Noticef("parsing model %q", path)
	start := time.Now()

	if err := r.parseObj(path); err != nil {
		return nil, err
	}

	s := scene.NewScene()
	if err := r.build(s, opt); err != nil {
		return nil, err
	}

	r.logger.Noticef("parsed %d triangles, %d materials in %d ms",
		len(s.Triangles), len(s.Materials), time.Since(start).Nanoseconds()/1e6)
	return s, nil
}

func (r *reader) emitError(file string, line int, format string, args ...interface{}) error {
	return fmt.Errorf("[%s: %d] error: %s", file, line, fmt.Sprintf(format, args...))
}

// defaultMaterial lazily registers a gray fallback for faces that
// never select a material.
func (r *reader) defaultMaterial() int {
	if idx, exists := r.matNameToIndex[""]; exists {
		return idx
	}
	r.materials = append(r.materials, &wavefrontMaterial{
		Kd: types.XYZ(0.7, 0.7, 0.7),
		Ni: 1.0,
		Ns: 1.0,
		D:  1.0,
	})
	idx := len(r.materials) - 1
	r.matNameToIndex[""] = idx
	return idx
}

func (r *reader) parseObj(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lineNum := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		switch tokens[0] {
		case "mtllib":
			if len(tokens) < 2 {
				return r.emitError(path, lineNum, `unsupported syntax for "mtllib"; expected 1 argument`)
			}
			if err := r.parseMaterials(filepath.Join(filepath.Dir(path), tokens[1])); err != nil {
				return err
			}
		case "usemtl":
			if len(tokens) != 2 {
				return r.emitError(path, lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(tokens)-1)
			}
			idx, exists := r.matNameToIndex[tokens[1]]
			if !exists {
				return r.emitError(path, lineNum, "undefined material %q", tokens[1])
			}
			r.curMaterial = idx
		case "v":
			v, err := parseVec3(tokens)
			if err != nil {
				return r.emitError(path, lineNum, err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(tokens)
			if err != nil {
				return r.emitError(path, lineNum, err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(tokens)
			if err != nil {
				return r.emitError(path, lineNum, err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "f":
			if err := r.parseFace(tokens); err != nil {
				return r.emitError(path, lineNum, err.Error())
			}
		case "o", "g", "s":
			// Grouping has no effect on the flat triangle soup.
		}
	}
	return scanner.Err()
}

// parseFace triangulates an n-gon face as a fan around its first
// corner.
func (r *reader) parseFace(tokens []string) error {
	if len(tokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(tokens)-1)
	}

	corners := make([]faceCorner, 0, len(tokens)-1)
	for _, arg := range tokens[1:] {
		c, err := r.parseCorner(arg)
		if err != nil {
			return err
		}
		corners = append(corners, c)
	}

	mat := r.curMaterial
	if mat < 0 {
		mat = r.defaultMaterial()
		r.curMaterial = mat
	}

	for i := 1; i+1 < len(corners); i++ {
		r.faces = append(r.faces, face{
			corners:  [3]faceCorner{corners[0], corners[i], corners[i+1]},
			material: mat,
		})
	}
	return nil
}

// parseCorner parses one face argument: v, v/vt, v//vn or v/vt/vn.
// Indices are 1-based; negative values count from the list end.
func (r *reader) parseCorner(arg string) (faceCorner, error) {
	c := faceCorner{v: -1, uv: -1, n: -1}
	parts := strings.Split(arg, "/")
	if parts[0] == "" {
		return c, fmt.Errorf("face argument %q does not include a vertex index", arg)
	}

	var err error
	if c.v, err = resolveIndex(parts[0], len(r.vertexList)); err != nil {
		return c, fmt.Errorf("vertex index %q: %v", parts[0], err)
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.uv, err = resolveIndex(parts[1], len(r.uvList)); err != nil {
			return c, fmt.Errorf("tex coord index %q: %v", parts[1], err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.n, err = resolveIndex(parts[2], len(r.normalList)); err != nil {
			return c, fmt.Errorf("normal index %q: %v", parts[2], err)
		}
	}
	return c, nil
}

func resolveIndex(token string, listLen int) (int, error) {
	index, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return -1, err
	}
	offset := int(index) - 1
	if index < 0 {
		offset = listLen + int(index)
	}
	if offset < 0 || offset >= listLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return offset, nil
}

func (r *reader) parseMaterials(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r.logger.Infof("parsing material library %q", path)

	var cur *wavefrontMaterial
	lineNum := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		if tokens[0] == "newmtl" {
			if len(tokens) != 2 {
				return r.emitError(path, lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(tokens)-1)
			}
			name := tokens[1]
			if _, exists := r.matNameToIndex[name]; exists {
				return r.emitError(path, lineNum, "material %q already defined", name)
			}
			cur = &wavefrontMaterial{Name: name, Ni: 1.0, Ns: 1.0, D: 1.0}
			r.materials = append(r.materials, cur)
			r.matNameToIndex[name] = len(r.materials) - 1
			continue
		}
		if cur == nil {
			return r.emitError(path, lineNum, `got %q without a "newmtl"`, tokens[0])
		}

		switch tokens[0] {
		case "Ka":
			cur.Ka, err = parseVec3(tokens)
		case "Kd":
			cur.Kd, err = parseVec3(tokens)
		case "Ks":
			cur.Ks, err = parseVec3(tokens)
		case "Ke":
			cur.Ke, err = parseVec3(tokens)
		case "Ns":
			cur.Ns, err = parseFloat32(tokens)
		case "Ni":
			cur.Ni, err = parseFloat32(tokens)
		case "d":
			cur.D, err = parseFloat32(tokens)
		case "Tr":
			var tr float32
			tr, err = parseFloat32(tokens)
			cur.D = 1.0 - tr
		case "map_Ka":
			cur.KaTex = tokens[len(tokens)-1]
		case "map_Kd":
			cur.KdTex = tokens[len(tokens)-1]
		case "map_Ks":
			cur.KsTex = tokens[len(tokens)-1]
		case "map_bump", "bump":
			cur.BumpTex = tokens[len(tokens)-1]
		}
		if err != nil {
			return r.emitError(path, lineNum, err.Error())
		}
	}
	return scanner.Err()
}

// build assembles the parsed data into scene triangles and materials:
// missing normals are smoothed from adjacent faces, tangents derived
// from uv gradients, textures loaded and BRDFs attached.
func (r *reader) build(s *scene.Scene, opt Options) error {
	smoothed := r.smoothNormals()

	s.Materials = make([]scene.Material, len(r.materials))
	for i, wf := range r.materials {
		m, err := r.buildMaterial(wf, opt)
		if err != nil {
			return err
		}
		s.Materials[i] = m
	}

	s.Triangles = make([]scene.Triangle, 0, len(r.faces))
	for _, f := range r.faces {
		var tri scene.Triangle
		tri.Material = f.material
		for ci, c := range f.corners {
			tri.V[ci] = r.vertexList[c.v]
			if c.uv >= 0 {
				tri.UV[ci] = r.uvList[c.uv]
			}
			if c.n >= 0 {
				tri.N[ci] = r.normalList[c.n]
			} else {
				tri.N[ci] = smoothed[c.v]
			}
		}
		tangent := faceTangent(&tri)
		tri.T[0], tri.T[1], tri.T[2] = tangent, tangent, tangent
		s.Triangles = append(s.Triangles, tri)
	}
	return nil
}

// smoothNormals accumulates area-weighted face normals on every vertex
// referenced without an explicit normal.
func (r *reader) smoothNormals() []types.Vec3 {
	acc := make([]types.Vec3, len(r.vertexList))
	needed := false
	for _, f := range r.faces {
		missing := false
		for _, c := range f.corners {
			if c.n < 0 {
				missing = true
			}
		}
		if !missing {
			continue
		}
		needed = true

		v0 := r.vertexList[f.corners[0].v]
		e1 := r.vertexList[f.corners[1].v].Sub(v0)
		e2 := r.vertexList[f.corners[2].v].Sub(v0)
		faceN := e1.Cross(e2)
		for _, c := range f.corners {
			acc[c.v] = acc[c.v].Add(faceN)
		}
	}
	if !needed {
		return acc
	}
	for i := range acc {
		if acc[i].Len() > 0 {
			acc[i] = acc[i].Normalize()
		}
	}
	return acc
}

func (r *reader) buildMaterial(wf *wavefrontMaterial, opt Options) (scene.Material, error) {
	m := scene.Material{
		Name:            wf.Name,
		Ambient:         wf.Ka,
		Diffuse:         wf.Kd,
		Specular:        wf.Ks,
		Exponent:        wf.Ns,
		RefractionIndex: wf.Ni,
		Translucency:    1.0 - wf.D,
		ThinGlass:       scene.IsThinglassName(wf.Name),
	}
	if wf.Ke.MaxComponent() > 0 {
		m.Emission = wf.Ke
		m.Emissive = true
	}

	var err error
	if m.AmbientTexture, err = r.loadTexture(wf.KaTex); err != nil {
		return m, err
	}
	if m.DiffuseTexture, err = r.loadTexture(wf.KdTex); err != nil {
		return m, err
	}
	if m.SpecularTexture, err = r.loadTexture(wf.KsTex); err != nil {
		return m, err
	}
	if m.BumpTexture, err = r.loadTexture(wf.BumpTex); err != nil {
		return m, err
	}

	switch opt.Brdf {
	case "diffuse":
		m.BRDF = brdf.Lambertian{}
	case "phong":
		m.BRDF = brdf.Phong{Exponent: m.Exponent}
	case "ltcbeckmann":
		m.BRDF = brdf.Beckmann{Roughness: brdf.RoughnessFromExponent(m.Exponent)}
	default:
		m.BRDF = brdf.PhongEnergyConserving{Exponent: m.Exponent}
	}
	return m, nil
}

func (r *reader) loadTexture(name string) (*texture.Texture, error) {
	if name == "" {
		return nil, nil
	}
	tex, err := texture.Load(filepath.Join(r.baseDir, name))
	if err != nil {
		// A missing map degrades to the flat material color.
		r.logger.Warningf("could not load texture %q: %v", name, err)
		return nil, nil
	}
	return tex, nil
}

// faceTangent derives the direction of increasing u in object space,
// falling back to the first edge for degenerate uv mappings.
func faceTangent(tri *scene.Triangle) types.Vec3 {
	e1 := tri.V[1].Sub(tri.V[0])
	e2 := tri.V[2].Sub(tri.V[0])
	du1 := tri.UV[1][0] - tri.UV[0][0]
	dv1 := tri.UV[1][1] - tri.UV[0][1]
	du2 := tri.UV[2][0] - tri.UV[0][0]
	dv2 := tri.UV[2][1] - tri.UV[0][1]

	det := du1*dv2 - du2*dv1
	if det > -1e-8 && det < 1e-8 {
		if e1.Len() > 0 {
			return e1.Normalize()
		}
		return types.Vec3{}
	}
	t := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(1.0 / det)
	if t.Len() > 0 {
		t = t.Normalize()
	}
	return t
}

func parseFloat32(tokens []string) (float32, error) {
	if len(tokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for %q; expected 1 argument; got %d`, tokens[0], len(tokens)-1)
	}
	val, err := strconv.ParseFloat(tokens[1], 32)
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}

func parseVec3(tokens []string) (types.Vec3, error) {
	if len(tokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for %q; expected 3 arguments; got %d`, tokens[0], len(tokens)-1)
	}
	var v types.Vec3
	for i := 1; i <= 3; i++ {
		coord, err := strconv.ParseFloat(tokens[i], 32)
		if err != nil {
			return v, err
		}
		v[i-1] = float32(coord)
	}
	return v, nil
}

func parseVec2(tokens []string) (types.Vec2, error) {
	if len(tokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for %q; expected 2 arguments; got %d`, tokens[0], len(tokens)-1)
	}
	var v types.Vec2
	for i := 1; i <= 2; i++ {
		coord, err := strconv.ParseFloat(tokens[i], 32)
		if err != nil {
			return v, err
		}
		v[i-1] = float32(coord)
	}
	return v, nil
}
