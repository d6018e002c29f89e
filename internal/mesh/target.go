package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Target receives finished meshes. Attaching under an existing name replaces that mesh.
type Target interface {
	Attach(name string, m *Mesh, material string) error
}

// Attachment is a mesh with the material it was attached with.
type Attachment struct {
	Mesh     *Mesh
	Material string
}

// Attachments is an in-memory Target.
type Attachments struct {
	mu    sync.RWMutex
	items map[string]Attachment
}

func NewAttachments() *Attachments {
	return &Attachments{items: make(map[string]Attachment)}
}

func (a *Attachments) Attach(name string, m *Mesh, material string) error {
	if name == "" {
		return fmt.Errorf("attach mesh: name missing")
	}
	if m == nil {
		return fmt.Errorf("attach %q: mesh missing", name)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[name] = Attachment{Mesh: m, Material: material}
	return nil
}

func (a *Attachments) Get(name string) (Attachment, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	att, ok := a.items[name]
	return att, ok
}

func (a *Attachments) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.items))
	for name := range a.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OBJTarget writes every attached mesh to <Dir>/<name>.obj.
type OBJTarget struct {
	Dir string
}

func (t OBJTarget) Attach(name string, m *Mesh, material string) error {
	if name == "" {
		return fmt.Errorf("attach mesh: name missing")
	}
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return fmt.Errorf("create mesh directory: %w", err)
	}

	path := filepath.Join(t.Dir, name+".obj")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteOBJ(file, name, m, material); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// WriteOBJ encodes m as a Wavefront OBJ object with positions, UVs and normals.
func WriteOBJ(w io.Writer, name string, m *Mesh, material string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	buf := bufio.NewWriter(w)
	fmt.Fprintf(buf, "o %s\n", name)
	if material != "" {
		fmt.Fprintf(buf, "usemtl %s\n", material)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(buf, "v %g %g %g\n", v.X(), v.Y(), v.Z())
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(buf, "vt %g %g\n", uv.X(), uv.Y())
	}
	for _, n := range m.Normals {
		fmt.Fprintf(buf, "vn %g %g %g\n", n.X(), n.Y(), n.Z())
	}
	for t := 0; t+2 < len(m.Triangles); t += 3 {
		a, b, c := m.Triangles[t]+1, m.Triangles[t+1]+1, m.Triangles[t+2]+1
		fmt.Fprintf(buf, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}
	return buf.Flush()
}
