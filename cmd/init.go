// qgen init [name]
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/qobs-build/qgen/internal/msg"
	"github.com/spf13/cobra"
)

// writefile creates a file, leaving existing ones alone
func writefile(w io.Writer, content string, elem ...string) error {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); err == nil {
		msg.Warn("%s already exists, leaving it alone", filepath.ToSlash(path))
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	fmt.Fprintf(w, "%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	return nil
}

func starterManifest(name string, lib bool) string {
	kind := "ConsoleApp"
	if lib {
		kind = "StaticLib"
	}
	return `[solution]
name = "` + name + `"
configurations = ["Debug", "Release"]
platforms = ["x64"]
location = "build"

[[solution.configuration]]
terms = ["Debug"]
defines = ["DEBUG"]
flags = ["Symbols"]

[[solution.configuration]]
terms = ["Release"]
defines = ["NDEBUG"]
flags = ["Optimize"]

[[project]]
name = "` + name + `"
kind = "` + kind + `"
language = "C"
files = ["src/**/*.c", "src/**/*.h"]
`
}

// initIn writes a starter solution into dir
func initIn(w io.Writer, dir, name string, lib bool) error {
	if err := writefile(w, starterManifest(name, lib), dir, "qgen.toml"); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return err
	}

	if lib {
		// src/hello_world.c
		if err := writefile(w, `#include <stdio.h>
#include "hello_world.h"

void hello_world(void) {
    puts("Hello, World!");
}
`, dir, "src", "hello_world.c"); err != nil {
			return err
		}

		// src/hello_world.h
		if err := writefile(w, `#ifndef HELLOWORLD_H
#define HELLOWORLD_H

#ifdef __cplusplus
extern "C" {
#endif

void hello_world(void);

#ifdef __cplusplus
} // extern "C"
#endif

#endif
`, dir, "src", "hello_world.h"); err != nil {
			return err
		}
	} else {
		// src/main.c
		if err := writefile(w, `#include <stdio.h>

int main(void) {
    puts("Hello, World!");
    return 0;
}
`, dir, "src", "main.c"); err != nil {
			return err
		}
	}

	// .gitignore
	if err := writefile(w, "build/\n", dir, ".gitignore"); err != nil {
		return err
	}

	programName := getProgramName()
	fmt.Fprintf(w, "You can now run %s to write Makefiles, or %s to see the other actions.\n",
		color.HiCyanString(programName+" gmake"), color.HiCyanString(programName+" list"))
	return nil
}

func newInitCmd() *cobra.Command {
	var lib bool
	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a starter qgen.toml in the current directory",
		Long:  `Create a starter qgen.toml and sources in the current directory. The name defaults to the directory's.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			name := filepath.Base(wd)
			if len(args) > 0 {
				name = args[0]
			}
			return initIn(cmd.OutOrStdout(), ".", name, lib)
		},
	}
	cmd.Flags().BoolVarP(&lib, "lib", "l", false, "Create a static library project")
	return cmd
}
