package shader

import (
	"fmt"
	"sync"

	set "github.com/ErikKalkoken/go-set"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// program is the implementation of the Program interface.
type program struct {
	mu *sync.Mutex

	name   string
	handle gpu.Handle
	device gpu.Device
	logger *zap.Logger

	locations map[string]gpu.UniformLocation
	declared  []string
	warned    set.Set[string]
}

// Program is a linked GPU program together with its uniform-location cache.
//
// SetUniform only reads the cache. The cache is filled by CacheUniforms, which NewProgram calls
// once for every declared uniform; callers that need additional names cache them explicitly.
type Program interface {
	// Name retrieves the program name.
	//
	// Returns:
	//   - string: the program name
	Name() string

	// Handle retrieves the device handle of the program.
	//
	// Returns:
	//   - gpu.Handle: the program handle
	Handle() gpu.Handle

	// Use binds the program on the device.
	Use()

	// SetUniform writes a uniform value by name.
	// A name missing from the cache, or a value of the wrong type, logs a warning once and is ignored.
	//
	// Parameters:
	//   - name: the uniform name
	//   - value: float32, int32, bool, mgl32.Vec3, mgl32.Vec4, mgl32.Mat4 or []mgl32.Vec4
	SetUniform(name string, value any)

	// CacheUniforms resolves uniform locations and stores them in the cache.
	// Names the device cannot resolve are logged and left uncached.
	//
	// Parameters:
	//   - names: the uniform names to resolve
	//
	// Returns:
	//   - int: the number of names resolved
	CacheUniforms(names ...string) int

	// Cached reports whether a uniform name is in the location cache.
	//
	// Parameters:
	//   - name: the uniform name
	//
	// Returns:
	//   - bool: true if SetUniform will write the uniform
	Cached(name string) bool

	// Release frees the program on the device.
	Release()
}

var _ Program = &program{}

// NewProgram compiles src on the device and caches every declared uniform.
// A compile or link failure is returned as an error; the caller cannot render without the program.
//
// Parameters:
//   - device: the GPU device
//   - src: the program source
//   - options: functional options (logger)
//
// Returns:
//   - Program: the linked program
//   - error: the wrapped compile or link error
func NewProgram(device gpu.Device, src gpu.ProgramSource, options ...ProgramBuilderOption) (Program, error) {
	p := &program{
		mu:        &sync.Mutex{},
		name:      src.Name,
		device:    device,
		logger:    zap.NewNop(),
		locations: make(map[string]gpu.UniformLocation, len(src.Uniforms)),
	}
	for _, opt := range options {
		opt(p)
	}

	h, err := device.CreateProgram(src)
	if err != nil {
		return nil, fmt.Errorf("shader program %q: %w", src.Name, err)
	}
	p.handle = h

	for _, u := range src.Uniforms {
		p.declared = append(p.declared, u.Name)
	}
	p.CacheUniforms(p.declared...)
	return p, nil
}

func (p *program) Name() string {
	return p.name
}

func (p *program) Handle() gpu.Handle {
	return p.handle
}

func (p *program) Use() {
	p.device.UseProgram(p.handle)
}

func (p *program) SetUniform(name string, value any) {
	p.mu.Lock()
	loc, ok := p.locations[name]
	p.mu.Unlock()
	if !ok {
		p.warnOnce(name, "uniform not cached", nil)
		return
	}
	if err := p.device.SetUniform(loc, value); err != nil {
		p.warnOnce(name, "set uniform failed", err)
	}
}

func (p *program) CacheUniforms(names ...string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	found := 0
	for _, name := range names {
		loc, ok := p.device.UniformLocation(p.handle, name)
		if !ok {
			p.logger.Warn("uniform not found",
				zap.String("program", p.name),
				zap.String("uniform", name),
			)
			continue
		}
		p.locations[name] = loc
		found++
	}
	return found
}

func (p *program) Cached(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.locations[name]
	return ok
}

func (p *program) Release() {
	p.device.Release(p.handle)
	p.handle = 0
}

// warnOnce logs a uniform warning the first time it occurs for a name.
func (p *program) warnOnce(name, msg string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warned.Contains(name) {
		return
	}
	p.warned.Add(name)
	fields := []zap.Field{zap.String("program", p.name), zap.String("uniform", name)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	p.logger.Warn(msg, fields...)
}
