// Package builtin registers the version providers that ship with rulebook.
package builtin

import (
	"github.com/zjrosen/rulebook/internal/provider"
)

// Provider type identifiers.
const (
	ConstantTypeID    provider.TypeID = "constant"
	PathPatternTypeID provider.TypeID = "path_pattern"
	FileHashTypeID    provider.TypeID = "file_hash"
	ManualTypeID      provider.TypeID = "manual"
)

// Register adds the built-in provider types and their editors.
// Order is the order they are offered for selection.
func Register(reg *provider.Registry, editors *provider.EditorResolver) {
	structEditor := provider.NewStructEditor()

	reg.MustRegister(provider.Registration{
		Descriptor: provider.Descriptor{Name: "ConstantVersionProvider", TypeID: ConstantTypeID},
		New:        func() (provider.Provider, error) { return NewConstant(), nil },
	})
	reg.MustRegister(provider.Registration{
		Descriptor: provider.Descriptor{Name: "PathPatternVersionProvider", TypeID: PathPatternTypeID},
		New:        func() (provider.Provider, error) { return NewPathPattern(), nil },
	})
	reg.MustRegister(provider.Registration{
		Descriptor: provider.Descriptor{Name: "FileHashVersionProvider", TypeID: FileHashTypeID},
		New:        func() (provider.Provider, error) { return NewFileHash(), nil },
	})
	// Kept so rules saved by older versions still load; no editor.
	reg.MustRegister(provider.Registration{
		Descriptor: provider.Descriptor{Name: "ManualVersionProvider", TypeID: ManualTypeID, Hidden: true},
		New:        func() (provider.Provider, error) { return &Manual{}, nil },
	})

	if editors == nil {
		return
	}
	editors.MustRegister(ConstantTypeID, structEditor)
	editors.MustRegister(PathPatternTypeID, structEditor)
	editors.MustRegister(FileHashTypeID, structEditor)
}

// NewRegistry returns a registry and editor resolver populated with the
// built-in providers.
func NewRegistry() (*provider.Registry, *provider.EditorResolver) {
	reg := provider.NewRegistry()
	editors := provider.NewEditorResolver()
	Register(reg, editors)
	return reg, editors
}
