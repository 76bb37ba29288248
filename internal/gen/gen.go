// Package gen holds the built-in generators. Each one renders a resolved
// action.Solution into the project files of one build tool.
package gen

import "github.com/qobs-build/qgen/internal/action"

// Register adds the built-in actions to reg, in the order `qgen list`
// shows them
func Register(reg *action.Registry) error {
	builtins := []struct {
		name, description string
		generate          action.GenerateFunc
	}{
		{"gmake", "GNU Makefiles for POSIX, MinGW, and Cygwin", generateGmake},
		{"vs2002", "Microsoft Visual Studio 2002", vs2002.generate},
		{"vs2003", "Microsoft Visual Studio 2003", vs2003.generate},
		{"vs2005", "Microsoft Visual Studio 2005 (includes Express editions)", vs2005.generate},
		{"ninja", "Ninja build files", generateNinja},
	}
	for _, b := range builtins {
		if err := reg.Register(b.name, b.description, b.generate); err != nil {
			return err
		}
	}
	return nil
}
