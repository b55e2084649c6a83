package planet

import (
	"math"

	"mini-planet/internal/config"
	"mini-planet/internal/graphics"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/meshing"
	"mini-planet/internal/profiling"
	"mini-planet/internal/tile"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// gpuMesh is the uploaded copy of one tile's geometry
type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
	version       uint64
	min, max      mgl32.Vec3
	seen          bool
}

// Planet draws every visible terrain tile
type Planet struct {
	shader *graphics.Shader
	meshes map[uint64]*gpuMesh
	sun    mgl32.Vec3

	// DrawnTiles and CulledTiles count the last frame's tiles
	DrawnTiles  int
	CulledTiles int
}

// NewPlanet creates a new planet renderable
func NewPlanet() *Planet {
	return &Planet{
		meshes: make(map[uint64]*gpuMesh),
		sun:    mgl32.Vec3{0.4, 0.8, 0.45}.Normalize(),
	}
}

// Init compiles the terrain shader
func (p *Planet) Init() error {
	var err error
	p.shader, err = graphics.NewShader("planet")
	return err
}

func (p *Planet) SetViewport(width, height int) {}

// Render uploads new or rebuilt tiles, frees tiles no longer shown and
// draws what is inside the frustum.
func (p *Planet) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderer.renderPlanet")()

	if config.GetWireframe() {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	radius := ctx.Terrain.Config().Planet.Radius
	eye := ctx.Camera.Position
	alt := math.Max(eye.Len()-radius, 1)

	p.shader.Use()
	p.shader.SetMatrix4("view", ctx.View)
	p.shader.SetMatrix4("proj", ctx.Proj)
	p.shader.SetVector3("sunDirection", p.sun)
	p.shader.SetVector3("cameraPosition", mgl32.Vec3{float32(eye.X()), float32(eye.Y()), float32(eye.Z())})
	p.shader.SetFloat("fogDensity", float32(0.25/(alt+radius)))

	planes := extractFrustumPlanes(ctx.Proj.Mul4(ctx.View))

	for _, m := range p.meshes {
		m.seen = false
	}
	p.DrawnTiles, p.CulledTiles = 0, 0

	for _, e := range ctx.Terrain.Visible() {
		t, ok := e.Tile.(*tile.Tile)
		if !ok {
			continue
		}
		m := p.ensure(t)
		if m == nil {
			continue
		}
		m.seen = true
		if !aabbIntersectsFrustum(m.min, m.max, planes) {
			p.CulledTiles++
			continue
		}
		gl.BindVertexArray(m.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, 0)
		p.DrawnTiles++
	}
	gl.BindVertexArray(0)

	for id, m := range p.meshes {
		if !m.seen {
			deleteMesh(m)
			delete(p.meshes, id)
		}
	}
}

// ensure returns the uploaded mesh of t, uploading it when missing or stale.
func (p *Planet) ensure(t *tile.Tile) *gpuMesh {
	mesh := t.Mesh()
	if mesh.Empty() {
		return nil
	}
	m, ok := p.meshes[t.ID()]
	if ok && m.version == t.Version() {
		return m
	}
	defer profiling.Track("renderer.renderPlanet.upload")()
	if ok {
		deleteMesh(m)
	}
	m = upload(mesh)
	m.version = t.Version()
	p.meshes[t.ID()] = m
	return m
}

func upload(mesh *meshing.Mesh) *gpuMesh {
	n := mesh.VertexCount()
	interleaved := make([]float32, 0, n*9)
	lo := mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := 0; i < n; i++ {
		pos := mesh.Positions[i*3 : i*3+3]
		interleaved = append(interleaved, pos...)
		interleaved = append(interleaved, mesh.Normals[i*3:i*3+3]...)
		interleaved = append(interleaved, mesh.Colours[i*3:i*3+3]...)
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], pos[a])
			hi[a] = max(hi[a], pos[a])
		}
	}

	m := &gpuMesh{count: int32(len(mesh.Indices)), min: lo, max: hi}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(interleaved)*4, gl.Ptr(interleaved), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	stride := int32(9 * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 3, gl.FLOAT, false, stride, 6*4)

	gl.BindVertexArray(0)
	return m
}

func deleteMesh(m *gpuMesh) {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
}

// Dispose cleans up OpenGL resources
func (p *Planet) Dispose() {
	for id, m := range p.meshes {
		deleteMesh(m)
		delete(p.meshes, id)
	}
	if p.shader != nil {
		p.shader.Delete()
	}
}
