package gen

import (
	"os"
	"os/exec"
)

// TODO: zig cc
var (
	commonCCompilers   = []string{"clang", "gcc", "icx", "icc", "tcc"}
	commonCxxCompilers = []string{"clang++", "g++", "icpx", "icpc"}
)

// lookPath is swapped out in tests
var lookPath = exec.LookPath

// findCompiler picks the compiler written into generated build files:
// $CC/$CXX first, then the first known compiler on PATH, then cc/c++
func findCompiler(needCxx bool) string {
	cc := os.Getenv("CC")
	cxx := os.Getenv("CXX")

	if needCxx && cxx != "" {
		return cxx
	}
	if !needCxx && cc != "" {
		return cc
	}

	compilersToTry := commonCCompilers
	if needCxx {
		compilersToTry = commonCxxCompilers
	}
	for _, compiler := range compilersToTry {
		if _, err := lookPath(compiler); err == nil {
			return compiler
		}
	}

	if needCxx {
		return "c++"
	}
	return "cc"
}
