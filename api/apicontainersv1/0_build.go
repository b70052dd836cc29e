package apicontainersv1

import (
	"github.com/fulldump/box"
)

func BuildV1Containers(v1 *box.R) *box.R {

	containers := v1.Resource("/containers").
		WithActions(
			box.Get(listContainers),
		)

	v1.Resource("/containers/{typeName}").
		WithActions(
			box.Get(getContainer),
			box.ActionPost(find),
		)

	v1.Resource("/containers/{typeName}/objects/{index}").
		WithActions(
			box.Get(getObject),
		)

	v1.Resource("/registry").
		WithActions(
			box.Get(getRegistry),
		)

	return containers
}
