package capture

import (
	"fmt"
	"strings"
)

// ContainerKind names a Container variant on the wire.
type ContainerKind string

const (
	ContainerMe      ContainerKind = "me"
	ContainerProject ContainerKind = "project"
)

// Container is the destination scope of a capture: exactly one of Me or Project.
// The unexported method closes the set of variants to this package.
type Container interface {
	Kind() ContainerKind
	container()
}

// Me is the personal scope of the acting identity.
type Me struct{}

func (Me) Kind() ContainerKind { return ContainerMe }
func (Me) container()          {}

// Project scopes a capture to one project owned by the acting identity.
type Project struct {
	ProjectID string
}

func (Project) Kind() ContainerKind { return ContainerProject }
func (Project) container()          {}

// ContainerRef is the JSON form of a Container.
type ContainerRef struct {
	Kind      string `json:"kind"`
	ProjectID string `json:"project_id,omitempty"`
}

// ParseContainer converts a wire reference into a Container.
// Only the shape is validated here; project existence is checked by the caller.
func ParseContainer(ref ContainerRef) (Container, error) {
	switch ContainerKind(strings.ToLower(strings.TrimSpace(ref.Kind))) {
	case ContainerMe:
		if strings.TrimSpace(ref.ProjectID) != "" {
			return nil, fmt.Errorf("container kind \"me\" does not take a project_id")
		}
		return Me{}, nil
	case ContainerProject:
		id := strings.TrimSpace(ref.ProjectID)
		if id == "" {
			return nil, fmt.Errorf("container kind \"project\" requires project_id")
		}
		return Project{ProjectID: id}, nil
	default:
		return nil, fmt.Errorf("container kind must be one of: me, project")
	}
}

// RefOf returns the wire form of c.
func RefOf(c Container) ContainerRef {
	switch v := c.(type) {
	case Project:
		return ContainerRef{Kind: string(ContainerProject), ProjectID: v.ProjectID}
	default:
		return ContainerRef{Kind: string(ContainerMe)}
	}
}

// Scope is the recompute scope string for c: "me" or "project:<id>".
func Scope(c Container) string {
	if p, ok := c.(Project); ok {
		return "project:" + p.ProjectID
	}
	return string(ContainerMe)
}
