//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = []string{
	"simple_shader.vert",
	"simple_shader.frag",
	"point_light.vert",
	"point_light.frag",
}

// Compiles every GLSL shader to SPIR-V under shaders/bin.
func (Build) Shaders() error {
	if err := os.MkdirAll("shaders/bin", 0o755); err != nil {
		return err
	}
	for _, source := range shaderSources {
		in := filepath.Join("shaders", source)
		out := filepath.Join("shaders", "bin", source+".spv")
		if _, err := executeCmd("glslc", withArgs(in, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Builds the testbed binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/helios", "main.go"), withStream()); err != nil {
		return err
	}
	return nil
}
