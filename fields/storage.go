package fields

import (
	"sort"

	"github.com/notargets/insfv/bcs"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

// Storage owns every field of one sub-problem, kernels only hold references
type Storage struct {
	Mesh *mesh.Mesh
	BCs  *bcs.Registry

	fields map[string]*Field
}

func NewStorage(m *mesh.Mesh, reg *bcs.Registry) *Storage {
	if reg == nil {
		reg = bcs.NewRegistry()
	}
	return &Storage{
		Mesh:   m,
		BCs:    reg,
		fields: make(map[string]*Field),
	}
}

func (s *Storage) Add(name string, kind Kind) (f *Field, err error) {
	if _, exists := s.fields[name]; exists {
		return nil, types.NewConfigurationError("storage", name, "field already exists")
	}
	f = NewField(name, kind, s.Mesh, s.BCs)
	s.fields[name] = f
	return
}

// MustAdd is for fixed field sets built by code, not input
func (s *Storage) MustAdd(name string, kind Kind) *Field {
	f, err := s.Add(name, kind)
	if err != nil {
		panic(err)
	}
	return f
}

func (s *Storage) Get(name string) (f *Field, ok bool) {
	f, ok = s.fields[name]
	return
}

/*
Require looks up a coupled field for object.param and checks its kind. A missing field or a
field of the wrong kind is a configuration error.
*/
func (s *Storage) Require(object, param, name string, kind Kind) (f *Field, err error) {
	var ok bool
	if f, ok = s.fields[name]; !ok {
		return nil, types.NewConfigurationError(object, param, "field [%s] does not exist", name)
	}
	if f.Kind != kind {
		return nil, types.NewConfigurationError(object, param,
			"field [%s] is a %s variable, a %s variable is required", name, f.Kind, kind)
	}
	return
}

func (s *Storage) Names() (names []string) {
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}
