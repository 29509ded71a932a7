package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/shape"
)

type gmshElement struct {
	shape func() shape.Shape
	nodes int
	// order maps our local node k to the gmsh node order[k]
	order []int
}

// gmshElementTypes holds the first order Gmsh element types
var gmshElementTypes = map[int]gmshElement{
	1: {shape.NewLine, 2, []int{0, 1}},
	2: {shape.NewTriangle, 3, []int{0, 1, 2}},
	3: {shape.NewSquare, 4, []int{0, 1, 3, 2}},
	4: {shape.NewTetrahedron, 4, []int{0, 1, 2, 3}},
	5: {shape.NewCube, 8, []int{0, 1, 3, 2, 4, 5, 7, 6}},
	6: {func() shape.Shape { return shape.NewTriangleLine([2]int{0, 1}) }, 6, []int{0, 1, 2, 3, 4, 5}},
}

// Gmsh is a mesh read from a Gmsh file with its physical groups, each the
// top level element numbers tagged with the group
type Gmsh struct {
	Mesh   *mesh.Mesh
	Groups map[string][]int
}

type gmshRecord struct {
	gtype, physical int
	nodes           []int
}

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (g *Gmsh, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".msh" {
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
	var file *os.File
	if file, err = os.Open(filename); err != nil {
		return
	}
	defer file.Close()
	return ReadGmsh22(file)
}

/*
ReadGmsh22 reads an ASCII Gmsh 2.2 file. Only elements of the highest
dimension present become mesh elements, lower dimensional elements are
boundary markings and are skipped. Higher order and unknown element types
are skipped.
*/
func ReadGmsh22(r io.Reader) (g *Gmsh, err error) {
	var (
		scanner  = bufio.NewScanner(r)
		index    = make(map[int]int) // gmsh node id to vertex index
		names    = make(map[int]string)
		vertices []r3.Vec
		records  []gmshRecord
	)
	for scanner.Scan() {
		switch line := strings.TrimSpace(scanner.Text()); line {
		case "$MeshFormat":
			if err = readMeshFormat22(scanner); err != nil {
				return
			}
		case "$PhysicalNames":
			if err = readPhysicalNames(scanner, names); err != nil {
				return
			}
		case "$Nodes":
			if vertices, err = readNodes22(scanner, index); err != nil {
				return
			}
		case "$Elements":
			if records, err = readElements22(scanner); err != nil {
				return
			}
		default:
			if strings.HasPrefix(line, "$") && !strings.HasPrefix(line, "$End") {
				skipSection(scanner, "$End"+line[1:])
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %v", err)
	}
	return buildGmsh(vertices, index, names, records)
}

func buildGmsh(vertices []r3.Vec, index map[int]int, names map[int]string,
	records []gmshRecord) (g *Gmsh, err error) {
	var dim int
	for _, rec := range records {
		dim = max(dim, gmshElementTypes[rec.gtype].shape().Dimension)
	}
	if dim == 0 {
		return nil, fmt.Errorf("no supported elements in gmsh file")
	}
	var (
		conn   [][]int
		shapes []shape.Shape
	)
	g = &Gmsh{Groups: make(map[string][]int)}
	for _, rec := range records {
		et := gmshElementTypes[rec.gtype]
		s := et.shape()
		if s.Dimension != dim {
			continue
		}
		nodes := make([]int, et.nodes)
		for k, gk := range et.order {
			var ok bool
			if nodes[k], ok = index[rec.nodes[gk]]; !ok {
				return nil, fmt.Errorf("element %d uses unknown node %d", len(conn)+1, rec.nodes[gk])
			}
		}
		conn = append(conn, nodes)
		shapes = append(shapes, s)
		if rec.physical != 0 {
			name, ok := names[rec.physical]
			if !ok {
				name = fmt.Sprintf("physical_%d", rec.physical)
			}
			g.Groups[name] = append(g.Groups[name], len(conn))
		}
	}
	if g.Mesh, err = mesh.New(vertices, conn, shapes); err != nil {
		return nil, err
	}
	return
}

func skipSection(scanner *bufio.Scanner, end string) {
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == end {
			return
		}
	}
}

// readCount parses the entry count opening a section
func readCount(line, what string) (n int, err error) {
	if n, err = strconv.Atoi(strings.TrimSpace(line)); err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number of %s: %q", what, line)
	}
	return
}

func readMeshFormat22(scanner *bufio.Scanner) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in MeshFormat")
	}
	parts := strings.Fields(scanner.Text())
	if len(parts) < 3 {
		return fmt.Errorf("invalid MeshFormat line")
	}
	if !strings.HasPrefix(parts[0], "2.") {
		return fmt.Errorf("unsupported Gmsh format version: %s", parts[0])
	}
	if parts[1] != "0" {
		return fmt.Errorf("binary Gmsh files are not supported")
	}
	skipSection(scanner, "$EndMeshFormat")
	return nil
}

func readPhysicalNames(scanner *bufio.Scanner, names map[int]string) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in PhysicalNames")
	}
	numNames, err := readCount(scanner.Text(), "physical names")
	if err != nil {
		return err
	}
	for i := 0; i < numNames; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading physical names")
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) < 3 {
			continue
		}
		tag, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("invalid physical tag: %v", err)
		}
		// names may contain spaces
		names[tag] = strings.Trim(strings.Join(parts[2:], " "), "\"")
	}
	skipSection(scanner, "$EndPhysicalNames")
	return nil
}

func readNodes22(scanner *bufio.Scanner, index map[int]int) (vertices []r3.Vec, err error) {
	if !scanner.Scan() {
		return nil, fmt.Errorf("unexpected EOF in Nodes")
	}
	var numNodes int
	if numNodes, err = readCount(scanner.Text(), "nodes"); err != nil {
		return
	}
	vertices = make([]r3.Vec, 0, numNodes)
	for i := 0; i < numNodes; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected EOF reading nodes")
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) < 4 {
			return nil, fmt.Errorf("invalid node line: %s", scanner.Text())
		}
		var (
			nodeID int
			x      [3]float64
		)
		if nodeID, err = strconv.Atoi(parts[0]); err != nil {
			return nil, fmt.Errorf("invalid node id: %v", err)
		}
		for d := range x {
			if x[d], err = strconv.ParseFloat(parts[1+d], 64); err != nil {
				return nil, fmt.Errorf("node %d: %v", nodeID, err)
			}
		}
		index[nodeID] = len(vertices)
		vertices = append(vertices, r3.Vec{X: x[0], Y: x[1], Z: x[2]})
	}
	skipSection(scanner, "$EndNodes")
	return
}

func readElements22(scanner *bufio.Scanner) (records []gmshRecord, err error) {
	if !scanner.Scan() {
		return nil, fmt.Errorf("unexpected EOF in Elements")
	}
	var numElements int
	if numElements, err = readCount(scanner.Text(), "elements"); err != nil {
		return
	}
	for i := 0; i < numElements; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected EOF reading elements")
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) < 5 {
			return nil, fmt.Errorf("invalid element line")
		}
		var header [3]int // id, type, number of tags
		for j := range header {
			if header[j], err = strconv.Atoi(parts[j]); err != nil {
				return nil, fmt.Errorf("invalid element line %q: %v", scanner.Text(), err)
			}
		}
		var (
			elemID, elemType, numTags = header[0], header[1], header[2]
			nodeStart                 = 3 + numTags
		)
		if numTags < 0 || len(parts) < nodeStart {
			return nil, fmt.Errorf("element %d: invalid tag count %d", elemID, numTags)
		}
		et, ok := gmshElementTypes[elemType]
		if !ok {
			continue
		}
		if len(parts) < nodeStart+et.nodes {
			return nil, fmt.Errorf("element %d: expected %d nodes, got %d",
				elemID, et.nodes, len(parts)-nodeStart)
		}
		rec := gmshRecord{gtype: elemType, nodes: make([]int, et.nodes)}
		if numTags > 0 {
			if rec.physical, err = strconv.Atoi(parts[3]); err != nil {
				return nil, fmt.Errorf("element %d: invalid physical tag: %v", elemID, err)
			}
		}
		for j := range rec.nodes {
			if rec.nodes[j], err = strconv.Atoi(parts[nodeStart+j]); err != nil {
				return nil, fmt.Errorf("element %d: %v", elemID, err)
			}
		}
		records = append(records, rec)
	}
	skipSection(scanner, "$EndElements")
	return
}
