package service

import (
	"fmt"

	"github.com/SierraSoftworks/connor"
	"github.com/go-json-experiment/json"

	"github.com/fulldump/hyperpool/objectpool"
	"github.com/fulldump/hyperpool/registry"
	"github.com/fulldump/hyperpool/typedesc"
	"github.com/fulldump/hyperpool/utils"
)

type Service struct {
	registry *registry.Registry
}

func NewService(r *registry.Registry) *Service {
	return &Service{
		registry: r,
	}
}

type Registry struct {
	ID         string       `json:"id"`
	Status     string       `json:"status"`
	Containers []*Container `json:"containers"`
}

type Container struct {
	Name       string   `json:"name"`
	TypeID     string   `json:"type_id"`
	Properties []string `json:"properties,omitempty"`
	objectpool.Stats
}

type Object struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
	Strong     uint32 `json:"strong"`
	Weak       uint32 `json:"weak"`
	Value      any    `json:"value"`
}

type Query struct {
	Filter map[string]interface{} `json:"filter"`
	Skip   int64                  `json:"skip"`
	Limit  int64                  `json:"limit"`
}

func (s *Service) GetRegistry() *Registry {
	return &Registry{
		ID:         s.registry.ID,
		Status:     s.registry.GetStatus(),
		Containers: s.ListContainers(),
	}
}

func (s *Service) ListContainers() []*Container {
	result := []*Container{}
	for _, entry := range s.registry.List() {
		result = append(result, newContainer(entry))
	}
	return result
}

func newContainer(entry registry.Entry) *Container {
	c := &Container{
		Name:   entry.Name,
		TypeID: entry.ID.String(),
		Stats:  entry.Container.Stats(),
	}
	if d, ok := typedesc.Lookup(entry.ID); ok {
		for _, p := range d.Properties {
			c.Properties = append(c.Properties, p.Name)
		}
	}
	return c
}

func (s *Service) lookup(name string) (registry.Entry, error) {
	for _, entry := range s.registry.List() {
		if entry.Name == name {
			return entry, nil
		}
	}
	return registry.Entry{}, ErrorContainerNotFound
}

func (s *Service) GetContainer(name string) (*Container, error) {
	entry, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return newContainer(entry), nil
}

// FindObjects visits live objects matching the query filter in index order.
// A negative limit means no limit.
func (s *Service) FindObjects(name string, query *Query, f func(object *Object) bool) error {

	entry, err := s.lookup(name)
	if err != nil {
		return err
	}

	if query == nil {
		query = &Query{Limit: -1}
	}
	hasFilter := len(query.Filter) > 0

	skip := query.Skip
	limit := query.Limit
	var traverseErr error
	entry.Container.TraverseAny(func(index uint32, value any) bool {

		if limit == 0 {
			return false
		}

		object, err := snapshot(entry.Container, index, value)
		if err != nil {
			traverseErr = err
			return false
		}

		if hasFilter {
			match, err := connor.Match(query.Filter, matchable(object.Value))
			if err != nil {
				traverseErr = fmt.Errorf("match: %w", err)
				return false
			}
			if !match {
				return true
			}
		}

		if skip > 0 {
			skip--
			return true
		}

		limit--
		return f(object)
	})

	return traverseErr
}

func (s *Service) GetObject(name string, index uint32) (*Object, error) {

	entry, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	c := entry.Container
	if index == 0 || index > c.Stats().Capacity {
		return nil, fmt.Errorf("%s(%d): %w", name, index, ErrorObjectNotFound)
	}
	if !c.TryIncRefStrong(index, c.Generation(index)) {
		return nil, fmt.Errorf("%s(%d): %w", name, index, ErrorObjectNotFound)
	}
	defer c.DecRefStrong(index)

	return snapshot(c, index, c.Value(index))
}

// snapshot must run while the caller holds a strong reference, which is
// discounted from the reported count.
func snapshot(c objectpool.ObjectContainer, index uint32, value any) (*Object, error) {

	var decoded any
	err := utils.Remarshal(value, &decoded, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s(%d): %w", c.TypeName(), index, err)
	}

	return &Object{
		Index:      index,
		Generation: c.Generation(index),
		Strong:     c.StrongCount(index) - 1,
		Weak:       c.WeakCount(index),
		Value:      decoded,
	}, nil
}

// matchable exposes scalar payloads to the filter under the key "value".
func matchable(value any) map[string]interface{} {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]interface{}{"value": value}
}
