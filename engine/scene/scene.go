// Package scene is the scene store: index-stable arenas of entities and lights with name lookup
// for the update API. The store is mutated between frames and read by the renderer during a frame.
package scene

import (
	"errors"
	"fmt"
	"sync"

	set "github.com/ErikKalkoken/go-set"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/entity"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/light"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// MaxLights is the largest number of active lights a scene holds.
const MaxLights = light.MaxLights

// NoChange marks a vector component, or a scalar, that an update leaves untouched.
const NoChange = math32.MaxFloat32

// Keep is a vector that leaves every component untouched.
var Keep = mgl32.Vec3{NoChange, NoChange, NoChange}

var (
	// ErrDuplicateName is returned when an entity or light name is already taken.
	ErrDuplicateName = errors.New("name already exists")
	// ErrNotFound is returned when no entity or light has the given name.
	ErrNotFound = errors.New("not found")
	// ErrLightLimit is returned when creating a light would exceed MaxLights active lights.
	ErrLightLimit = errors.New("light limit reached")
	// ErrVisualInUse is returned when an entity is already the visual of another light.
	ErrVisualInUse = errors.New("entity is already a light visual")
)

// EntityHandle is the stable arena index of an entity.
type EntityHandle int

// LightHandle is the stable arena index of a light.
type LightHandle int

// LightUpdate is a partial light update. Fields left at Keep or NoChange are untouched.
// Start from KeepLight and set the fields to change.
type LightUpdate struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// KeepLight is a LightUpdate that changes nothing.
var KeepLight = LightUpdate{Position: Keep, Direction: Keep, Color: Keep, Intensity: NoChange}

type scene struct {
	mu     *sync.Mutex
	logger *zap.Logger
	name   string

	entities    []entity.Entity
	lights      []light.Light
	entityNames map[string]EntityHandle
	lightNames  map[string]LightHandle
	visuals     set.Set[string]
}

// Scene owns the entities and lights of a world.
//
// Entities and lights are never removed. Handles stay valid for the life of the scene, and
// deactivation clears an entry in place.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// CreateEntity adds an active entity.
	//
	// Parameters:
	//   - name: the unique entity name
	//   - lods: LOD levels with strictly increasing MaxDistance
	//   - position: world position
	//   - rotation: Euler angles in degrees
	//   - scale: per-axis scale
	//   - cullModes: optional per-mesh cull overrides, indexed by mesh position inside a level
	//
	// Returns:
	//   - EntityHandle: the arena handle
	//   - error: ErrDuplicateName or entity.ErrLODOrder
	CreateEntity(name string, lods []entity.LODLevel, position, rotation, scale mgl32.Vec3, cullModes ...gpu.CullMode) (EntityHandle, error)

	// CreateDirLight adds a directional light.
	//
	// Parameters:
	//   - name: the unique light name
	//   - direction: the direction the light travels, normalized on creation
	//   - color: RGB color
	//   - intensity: scalar intensity
	//   - options: light options (shadows, visual)
	//
	// Returns:
	//   - LightHandle: the arena handle
	//   - error: ErrDuplicateName, ErrLightLimit, or a visual binding error
	CreateDirLight(name string, direction, color mgl32.Vec3, intensity float32, options ...light.LightBuilderOption) (LightHandle, error)

	// CreatePointLight adds a point light. See CreateDirLight for errors.
	CreatePointLight(name string, position, color mgl32.Vec3, intensity float32, options ...light.LightBuilderOption) (LightHandle, error)

	// CreateSpotLight adds a spot light with cone half-angles in degrees. See CreateDirLight for errors.
	CreateSpotLight(name string, position, direction, color mgl32.Vec3, intensity, innerDeg, outerDeg float32, options ...light.LightBuilderOption) (LightHandle, error)

	// UpdateEntity sets the transform of an entity. Components equal to NoChange are untouched.
	//
	// Parameters:
	//   - name: the entity name
	//   - position, rotation, scale: new values, or Keep
	//
	// Returns:
	//   - error: ErrNotFound
	UpdateEntity(name string, position, rotation, scale mgl32.Vec3) error

	// UpdateLight applies a partial update to a light. Moving a light also moves its visual entity.
	// Position is ignored for directional lights and Direction for point lights.
	//
	// Parameters:
	//   - name: the light name
	//   - u: the update, based on KeepLight
	//
	// Returns:
	//   - error: ErrNotFound
	UpdateLight(name string, u LightUpdate) error

	// DeactivateEntity clears an entity's meshes and active flag. Its handle stays valid.
	DeactivateEntity(name string) error

	// DeactivateLight clears a light's active flag, freeing a slot under MaxLights.
	DeactivateLight(name string) error

	// EntityByName returns the handle of a named entity.
	EntityByName(name string) (EntityHandle, bool)

	// LightByName returns the handle of a named light.
	LightByName(name string) (LightHandle, bool)

	// Entity returns the entity behind a handle, or nil for an invalid handle.
	// The pointer is valid until the next CreateEntity.
	Entity(h EntityHandle) *entity.Entity

	// Light returns the light behind a handle, or nil for an invalid handle.
	// The pointer is valid until the next light creation.
	Light(h LightHandle) *light.Light

	// Entities returns the entity arena in creation order. Callers must not modify it.
	Entities() []entity.Entity

	// Lights returns the light arena in creation order. Callers must not modify it.
	Lights() []light.Light

	// ActiveLights returns the number of active lights.
	ActiveLights() int
}

var _ Scene = &scene{}

// NewScene creates an empty Scene.
//
// Parameters:
//   - name: the scene identifier
//   - options: functional options (logger)
//
// Returns:
//   - Scene: the scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:          &sync.Mutex{},
		logger:      zap.NewNop(),
		name:        name,
		entityNames: make(map[string]EntityHandle),
		lightNames:  make(map[string]LightHandle),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) CreateEntity(name string, lods []entity.LODLevel, position, rotation, scale mgl32.Vec3, cullModes ...gpu.CullMode) (EntityHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entityNames[name]; ok {
		return -1, fmt.Errorf("create entity %q: %w", name, ErrDuplicateName)
	}
	e, err := entity.New(name, lods,
		entity.WithPosition(position),
		entity.WithRotation(rotation),
		entity.WithScale(scale),
		entity.WithCullModes(cullModes...),
	)
	if err != nil {
		return -1, fmt.Errorf("create entity: %w", err)
	}

	h := EntityHandle(len(s.entities))
	s.entities = append(s.entities, e)
	s.entityNames[name] = h
	return h, nil
}

func (s *scene) CreateDirLight(name string, direction, color mgl32.Vec3, intensity float32, options ...light.LightBuilderOption) (LightHandle, error) {
	return s.addLight(light.New(name, light.Directional{Direction: direction}, color, intensity, options...))
}

func (s *scene) CreatePointLight(name string, position, color mgl32.Vec3, intensity float32, options ...light.LightBuilderOption) (LightHandle, error) {
	return s.addLight(light.New(name, light.Point{Position: position}, color, intensity, options...))
}

func (s *scene) CreateSpotLight(name string, position, direction, color mgl32.Vec3, intensity, innerDeg, outerDeg float32, options ...light.LightBuilderOption) (LightHandle, error) {
	spot := light.NewSpot(position, direction, innerDeg, outerDeg)
	return s.addLight(light.New(name, spot, color, intensity, options...))
}

func (s *scene) addLight(l light.Light) (LightHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lightNames[l.Name]; ok {
		return -1, fmt.Errorf("create light %q: %w", l.Name, ErrDuplicateName)
	}
	if active := s.activeLights(); active >= MaxLights {
		s.logger.Warn("light rejected",
			zap.String("light", l.Name),
			zap.Int("active", active),
			zap.Int("max", MaxLights),
		)
		return -1, fmt.Errorf("create light %q: %w", l.Name, ErrLightLimit)
	}

	if l.Visual != "" {
		eh, ok := s.entityNames[l.Visual]
		if !ok {
			return -1, fmt.Errorf("create light %q: visual %q: %w", l.Name, l.Visual, ErrNotFound)
		}
		if s.visuals.Contains(l.Visual) {
			return -1, fmt.Errorf("create light %q: visual %q: %w", l.Name, l.Visual, ErrVisualInUse)
		}
		s.visuals.Add(l.Visual)
		e := &s.entities[eh]
		e.LightVisual = true
		if p, ok := l.Position(); ok {
			e.Position = p
		}
	}

	h := LightHandle(len(s.lights))
	s.lights = append(s.lights, l)
	s.lightNames[l.Name] = h
	return h, nil
}

func (s *scene) UpdateEntity(name string, position, rotation, scale mgl32.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.entityNames[name]
	if !ok {
		return fmt.Errorf("update entity %q: %w", name, ErrNotFound)
	}
	e := &s.entities[h]
	e.Position = merge(e.Position, position)
	e.Rotation = merge(e.Rotation, rotation)
	e.Scale = merge(e.Scale, scale)
	return nil
}

func (s *scene) UpdateLight(name string, u LightUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.lightNames[name]
	if !ok {
		return fmt.Errorf("update light %q: %w", name, ErrNotFound)
	}
	l := &s.lights[h]

	if p, ok := l.Position(); ok && u.Position != Keep {
		p = merge(p, u.Position)
		l.SetPosition(p)
		if eh, ok := s.entityNames[l.Visual]; ok {
			s.entities[eh].Position = p
		}
	}
	if d, ok := l.Direction(); ok && u.Direction != Keep {
		l.SetDirection(merge(d, u.Direction))
	}
	l.Color = merge(l.Color, u.Color)
	if u.Intensity != NoChange {
		l.Intensity = u.Intensity
	}
	return nil
}

func (s *scene) DeactivateEntity(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.entityNames[name]
	if !ok {
		return fmt.Errorf("deactivate entity %q: %w", name, ErrNotFound)
	}
	s.entities[h].Deactivate()
	return nil
}

func (s *scene) DeactivateLight(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.lightNames[name]
	if !ok {
		return fmt.Errorf("deactivate light %q: %w", name, ErrNotFound)
	}
	s.lights[h].Active = false
	return nil
}

func (s *scene) EntityByName(name string) (EntityHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.entityNames[name]
	return h, ok
}

func (s *scene) LightByName(name string) (LightHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lightNames[name]
	return h, ok
}

func (s *scene) Entity(h EntityHandle) *entity.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h < 0 || int(h) >= len(s.entities) {
		return nil
	}
	return &s.entities[h]
}

func (s *scene) Light(h LightHandle) *light.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h < 0 || int(h) >= len(s.lights) {
		return nil
	}
	return &s.lights[h]
}

func (s *scene) Entities() []entity.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities
}

func (s *scene) Lights() []light.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lights
}

func (s *scene) ActiveLights() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLights()
}

// activeLights counts active lights. Caller must hold the mutex.
func (s *scene) activeLights() int {
	n := 0
	for i := range s.lights {
		if s.lights[i].Active {
			n++
		}
	}
	return n
}

// merge replaces the components of dst whose counterpart in v is not NoChange.
func merge(dst, v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		if v[i] != NoChange {
			dst[i] = v[i]
		}
	}
	return dst
}
