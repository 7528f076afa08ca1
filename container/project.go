package container

import (
	"io"

	"github.com/google/uuid"
)

// Project is a fully read container whose objects are addressable by
// position and by name.
type Project struct {
	id      uuid.UUID
	objects []*Object
	byName  map[string]int
}

// ReadProject reads every object of r, whatever its topology. The first error
// aborts the read. Options other than topology selection apply as for
// NewReader.
func ReadProject(r io.Reader, opts ...Option) (*Project, error) {
	cr, err := NewReader(r, append(opts[:len(opts):len(opts)], withAllTopologies())...)
	if err != nil {
		return nil, err
	}
	p := &Project{id: cr.ProjectID(), byName: make(map[string]int)}
	for obj, err := range cr.All() {
		if err != nil {
			return nil, err
		}
		if _, dup := p.byName[obj.Name()]; !dup {
			p.byName[obj.Name()] = len(p.objects)
		}
		p.objects = append(p.objects, obj)
	}
	return p, nil
}

// ID returns the project UUID.
func (p *Project) ID() uuid.UUID { return p.id }

// Len returns the number of objects.
func (p *Project) Len() int { return len(p.objects) }

// ByIndex returns the object at position i.
func (p *Project) ByIndex(i int) (*Object, bool) {
	if i < 0 || i >= len(p.objects) {
		return nil, false
	}
	return p.objects[i], true
}

// ByName returns the first object called name.
func (p *Project) ByName(name string) (*Object, bool) {
	i, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return p.objects[i], true
}

// Names returns the object names in container order.
func (p *Project) Names() []string {
	names := make([]string, len(p.objects))
	for i, o := range p.objects {
		names[i] = o.Name()
	}
	return names
}
