package app

import (
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/modules/print"
	"github.com/vk/taskgridgo/modules/saxpy"
	"github.com/vk/taskgridgo/modules/shell"
	"github.com/vk/taskgridgo/modules/sleep"
)

// coreModules is the definitive list of all modules that are compiled into
// the taskgridgo binary.
var coreModules = []registry.Module{
	&print.Module{},
	&sleep.Module{},
	&shell.Module{},
	&saxpy.Module{},
}
