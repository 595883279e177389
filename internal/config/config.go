// Package config defines the format-agnostic pipeline model consumed by
// the graph builder. Concrete loaders, such as the HCL one, translate
// their source format into this model.
package config

import "github.com/hashicorp/hcl/v2"

// Pipeline is the unified representation of a user's task pipeline.
type Pipeline struct {
	Tasks []*Task
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	// Name is the unique, human-readable task name.
	Name string
	// Runner selects the registered runner kind that executes this task.
	Runner string
	// DependsOn names the tasks that must complete before this one starts.
	DependsOn []string
	// Body carries the runner-specific arguments, decoded later against
	// the runner's input struct.
	Body hcl.Body
}

// Task returns the task with the given name, or nil.
func (p *Pipeline) Task(name string) *Task {
	for _, t := range p.Tasks {
		if t.Name == name {
			return t
		}
	}
	return nil
}
