package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pellucidar/keel/engine/math"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// LoadOBJ parses a Wavefront OBJ file into the interleaved vertex layout.
// Faces with more than three corners are triangulated as a fan. Vertices are
// de-duplicated by their v/vt/vn index triple. When the file carries no
// normals, face normals are generated from the positions.
func LoadOBJ(path string) ([]metadata.Vertex, []uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	var positions []math.Vec3
	var texCoords []math.Vec2
	var normals []math.Vec3

	var vertices []metadata.Vertex
	var indices []uint32
	dedup := make(map[string]uint32)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, nil, fmt.Errorf("%s:%d: bad vertex: %w", path, lineNo, err)
			}
			positions = append(positions, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, nil, fmt.Errorf("%s:%d: bad texcoord: %w", path, lineNo, err)
			}
			// OBJ texcoords have a bottom-left origin
			texCoords = append(texCoords, math.Vec2{X: v[0], Y: 1.0 - v[1]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, nil, fmt.Errorf("%s:%d: bad normal: %w", path, lineNo, err)
			}
			normals = append(normals, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
		case "f":
			corners := fields[1:]
			if len(corners) < 3 {
				return nil, nil, fmt.Errorf("%s:%d: face with %d corners", path, lineNo, len(corners))
			}
			var faceIdx []uint32
			for _, corner := range corners {
				idx, err := resolveCorner(corner, positions, texCoords, normals, &vertices, dedup)
				if err != nil {
					return nil, nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
				}
				faceIdx = append(faceIdx, idx)
			}
			for i := 1; i+1 < len(faceIdx); i++ {
				indices = append(indices, faceIdx[0], faceIdx[i], faceIdx[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, nil, fmt.Errorf("%s: no geometry found", path)
	}

	if len(normals) == 0 {
		fillGeneratedNormals(vertices, indices)
	}
	return vertices, indices, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// resolveCorner turns one "v/vt/vn" face corner into a vertex index,
// reusing an existing vertex when the same triple was seen before.
func resolveCorner(corner string, positions []math.Vec3, texCoords []math.Vec2, normals []math.Vec3,
	vertices *[]metadata.Vertex, dedup map[string]uint32) (uint32, error) {

	if idx, ok := dedup[corner]; ok {
		return idx, nil
	}

	parts := strings.Split(corner, "/")
	pi, err := objIndex(parts[0], len(positions))
	if err != nil {
		return 0, fmt.Errorf("bad position index %q: %w", corner, err)
	}

	vert := metadata.Vertex{
		Position: positions[pi],
		Color:    math.NewVec3One(),
	}
	if len(parts) > 1 && parts[1] != "" {
		ti, err := objIndex(parts[1], len(texCoords))
		if err != nil {
			return 0, fmt.Errorf("bad texcoord index %q: %w", corner, err)
		}
		vert.TexCoord = texCoords[ti]
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := objIndex(parts[2], len(normals))
		if err != nil {
			return 0, fmt.Errorf("bad normal index %q: %w", corner, err)
		}
		vert.Normal = normals[ni]
	}

	idx := uint32(len(*vertices))
	*vertices = append(*vertices, vert)
	dedup[corner] = idx
	return idx, nil
}

// objIndex converts a 1-based (or negative, relative) OBJ index to 0-based.
func objIndex(s string, count int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v = count + v
	} else {
		v = v - 1
	}
	if v < 0 || v >= count {
		return 0, fmt.Errorf("index %s out of range (have %d)", s, count)
	}
	return v, nil
}

func fillGeneratedNormals(vertices []metadata.Vertex, indices []uint32) {
	positions := make([]math.Vec3, len(vertices))
	for i := range vertices {
		positions[i] = vertices[i].Position
	}
	normals := math.GenerateNormals(positions, indices)
	for i := range vertices {
		vertices[i].Normal = normals[i]
	}
}
