// Package hclcfg loads task pipelines from HCL files into the
// format-agnostic config model.
package hclcfg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
)

// fileConfig mirrors the top-level structure of a pipeline file.
type fileConfig struct {
	Tasks []*taskBlock `hcl:"task,block"`
}

// taskBlock is the raw form of a `task "name" { ... }` block. Everything
// beyond the reserved attributes stays in Remain for the runner's input
// struct to decode.
type taskBlock struct {
	Name      string   `hcl:"name,label"`
	Runner    string   `hcl:"runner"`
	DependsOn []string `hcl:"depends_on,optional"`
	Remain    hcl.Body `hcl:",remain"`
}

// Load reads every pipeline file reachable from path (a single .hcl file
// or a directory searched recursively) and merges them into one Pipeline.
func Load(ctx context.Context, path string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Resolved pipeline files.", "count", len(files), "path", path)

	parser := hclparse.NewParser()
	pipeline := &config.Pipeline{}
	seen := make(map[string]string)
	evalCtx := EvalContext()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %s", file, diags.Error())
		}

		var cfg fileConfig
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %s", file, diags.Error())
		}

		for _, block := range cfg.Tasks {
			if prev, dup := seen[block.Name]; dup {
				return nil, fmt.Errorf("duplicate task %q in %s (first defined in %s)", block.Name, file, prev)
			}
			seen[block.Name] = file
			pipeline.Tasks = append(pipeline.Tasks, &config.Task{
				Name:      block.Name,
				Runner:    block.Runner,
				DependsOn: block.DependsOn,
				Body:      block.Remain,
			})
		}
		logger.Debug("Loaded pipeline file.", "file", file, "tasks", len(cfg.Tasks))
	}

	return pipeline, nil
}

// EvalContext returns the evaluation context pipeline expressions are
// decoded against. It exposes the process environment as the `env` object,
// so attributes may reference values like env.HOME.
func EvalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

// resolvePath returns the .hcl files designated by path. A file must carry
// the .hcl extension; a directory is scanned recursively.
func resolvePath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("pipeline path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if !info.IsDir() {
		if filepath.Ext(path) != ".hcl" {
			return nil, fmt.Errorf("specified file is not an .hcl file: %s", path)
		}
		return []string{path}, nil
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error scanning directory %s: %w", path, walkErr)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found at %s", path)
	}
	return files, nil
}
