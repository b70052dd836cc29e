package service

import (
	"errors"
)

var ErrorContainerNotFound = errors.New("container not found")
var ErrorObjectNotFound = errors.New("object not found")

type Servicer interface { // read only, the inspector never constructs objects
	GetRegistry() *Registry
	ListContainers() []*Container
	GetContainer(name string) (*Container, error)
	FindObjects(name string, query *Query, f func(object *Object) bool) error
	GetObject(name string, index uint32) (*Object, error)
}
