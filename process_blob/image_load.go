package process_blob

import (
	"fmt"
	"path/filepath"

	"ausettings/process"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ImageManifestName is the file LoadImage expects inside an image directory
const ImageManifestName = "image.yaml"

type imageManifest struct {
	PID     process.ProcessID `yaml:"pid"`
	Name    string            `yaml:"name"`
	Path    string            `yaml:"path"`
	Modules []struct {
		Name string `yaml:"name"`
		Base uint64 `yaml:"base"`
	} `yaml:"modules"`
	Regions []struct {
		Address uint64 `yaml:"address"`
		File    string `yaml:"file"`
		Size    uint64 `yaml:"size"`
	} `yaml:"regions"`
}

// LoadImage builds a ProcessImage from dir/image.yaml. Region contents come from
// blob files relative to dir, or are zero filled when only a size is given. A
// relative exe path is resolved against dir so module siblings can be hashed.
func LoadImage(fs afero.Fs, dir string) (*ProcessImage, error) {
	manifestPath := filepath.Join(dir, ImageManifestName)
	raw, err := afero.ReadFile(fs, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m imageManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest %s: %w", manifestPath, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest %s: name is required", manifestPath)
	}

	exe := m.Path
	if exe != "" && !filepath.IsAbs(exe) {
		exe = filepath.Join(dir, exe)
	}

	img := NewProcessImage(m.PID, m.Name, exe)
	for _, mod := range m.Modules {
		img.AddModule(mod.Name, process.ProcessMemoryAddress(mod.Base))
	}

	for i, r := range m.Regions {
		addr := process.ProcessMemoryAddress(r.Address)
		switch {
		case r.File != "":
			data, err := afero.ReadFile(fs, filepath.Join(dir, r.File))
			if err != nil {
				return nil, fmt.Errorf("failed to read blob %s: %w", r.File, err)
			}
			img.MapBytes(addr, data)
		case r.Size > 0:
			img.MapRegion(addr, process.ProcessMemorySize(r.Size))
		default:
			return nil, fmt.Errorf("manifest %s: region %d at %s has neither file nor size", manifestPath, i, addr.ToString())
		}
	}

	return img, nil
}
