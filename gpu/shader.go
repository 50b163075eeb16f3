package gpu

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// ShaderEntrypoint is the entry point name of every shader stage.
const ShaderEntrypoint = "main"

// ReadShaderBlob reads a compiled shader. The contents are not inspected
// beyond requiring them to be non-empty.
func ReadShaderBlob(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read shader %s", path), ErrIO)
	}
	if len(code) == 0 {
		return nil, errors.Mark(errors.Newf("shader %s is empty", path), ErrIO)
	}
	return code, nil
}

// ReadShaderBlobs reads the vertex and fragment blobs concurrently. Both are
// read before either is returned, so a missing file is reported before any
// device object is created.
func ReadShaderBlobs(dir, vertexName, fragmentName string) (vertex, fragment []byte, err error) {
	var g errgroup.Group
	g.Go(func() error {
		var err error
		vertex, err = ReadShaderBlob(filepath.Join(dir, vertexName))
		return err
	})
	g.Go(func() error {
		var err error
		fragment, err = ReadShaderBlob(filepath.Join(dir, fragmentName))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return vertex, fragment, nil
}

// CreateShader creates a SPIR-V shader module for stage from code.
func CreateShader(device Device, stage ShaderStage, label string, code []byte) (Owned[Shader], error) {
	shader, err := device.CreateShader(ShaderCreateInfo{
		Label:      label,
		Code:       code,
		Entrypoint: ShaderEntrypoint,
		Format:     ShaderFormatSPIRV,
		Stage:      stage,
	})
	if err != nil {
		return Owned[Shader]{}, resourceError(err, "create "+stage.String()+" shader")
	}
	return OwnShader(device, shader), nil
}
