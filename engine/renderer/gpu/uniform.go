package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformType is the shader type of a declared uniform.
type UniformType uint8

const (
	UniformFloat UniformType = iota
	UniformInt
	UniformVec3
	UniformVec4
	UniformMat4
	// UniformVec4Array is an array of Count vec4 values.
	UniformVec4Array
)

// UniformDecl declares one member of a program's uniform block.
type UniformDecl struct {
	Name  string
	Type  UniformType
	Count int // array length for UniformVec4Array, ignored otherwise
}

// alignSize returns the alignment and size of a uniform member under WGSL uniform address space rules.
func (d UniformDecl) alignSize() (align, size int) {
	switch d.Type {
	case UniformFloat, UniformInt:
		return 4, 4
	case UniformVec3:
		return 16, 12
	case UniformVec4:
		return 16, 16
	case UniformMat4:
		return 16, 64
	case UniformVec4Array:
		return 16, 16 * max(d.Count, 1)
	}
	return 4, 4
}

// BlockLayout is the byte layout of a uniform block.
type BlockLayout struct {
	Offsets map[string]int
	Decls   map[string]UniformDecl
	Size    int
}

// LayoutUniforms computes member offsets using WGSL uniform layout rules.
// The total size is rounded up to a multiple of 16 bytes.
//
// Parameters:
//   - decls: the uniform members in declaration order
//
// Returns:
//   - BlockLayout: offsets keyed by member name and the block size
func LayoutUniforms(decls []UniformDecl) BlockLayout {
	l := BlockLayout{
		Offsets: make(map[string]int, len(decls)),
		Decls:   make(map[string]UniformDecl, len(decls)),
	}
	offset := 0
	for _, d := range decls {
		align, size := d.alignSize()
		offset = roundUp(offset, align)
		l.Offsets[d.Name] = offset
		l.Decls[d.Name] = d
		offset += size
	}
	l.Size = roundUp(max(offset, 16), 16)
	return l
}

func roundUp(v, align int) int {
	return (v + align - 1) / align * align
}

// CheckUniformValue verifies that value can be written to a uniform of type t.
func CheckUniformValue(d UniformDecl, value any) error {
	ok := false
	switch d.Type {
	case UniformFloat:
		_, ok = value.(float32)
	case UniformInt:
		switch value.(type) {
		case int32, bool:
			ok = true
		}
	case UniformVec3:
		_, ok = value.(mgl32.Vec3)
	case UniformVec4:
		_, ok = value.(mgl32.Vec4)
	case UniformMat4:
		_, ok = value.(mgl32.Mat4)
	case UniformVec4Array:
		var v []mgl32.Vec4
		v, ok = value.([]mgl32.Vec4)
		ok = ok && len(v) <= max(d.Count, 1)
	}
	if !ok {
		return fmt.Errorf("%s: %T: %w", d.Name, value, ErrUniformType)
	}
	return nil
}

// EncodeUniform writes value into a uniform block at the given offset in little-endian order.
//
// Parameters:
//   - dst: the uniform block bytes
//   - offset: member offset from LayoutUniforms
//   - d: the member declaration
//   - value: the value to encode
//
// Returns:
//   - error: ErrUniformType if the value does not match the declaration
func EncodeUniform(dst []byte, offset int, d UniformDecl, value any) error {
	if err := CheckUniformValue(d, value); err != nil {
		return err
	}
	_, size := d.alignSize()
	if offset < 0 || offset+size > len(dst) {
		return fmt.Errorf("%s: offset %d out of range", d.Name, offset)
	}

	putFloats := func(fs []float32) {
		for i, f := range fs {
			binary.LittleEndian.PutUint32(dst[offset+i*4:], math.Float32bits(f))
		}
	}

	switch v := value.(type) {
	case float32:
		putFloats([]float32{v})
	case int32:
		binary.LittleEndian.PutUint32(dst[offset:], uint32(v))
	case bool:
		var i uint32
		if v {
			i = 1
		}
		binary.LittleEndian.PutUint32(dst[offset:], i)
	case mgl32.Vec3:
		putFloats(v[:])
	case mgl32.Vec4:
		putFloats(v[:])
	case mgl32.Mat4:
		putFloats(v[:])
	case []mgl32.Vec4:
		for i := range v {
			for j := 0; j < 4; j++ {
				binary.LittleEndian.PutUint32(dst[offset+i*16+j*4:], math.Float32bits(v[i][j]))
			}
		}
	}
	return nil
}
