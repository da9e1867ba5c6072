package process_blob

import (
	"fmt"
	"strings"
	"sync"

	"ausettings/process"
)

// Finder implements process.Finder over a set of in-memory images
type Finder struct {
	mu     sync.Mutex
	images []*ProcessImage
}

var _ process.Finder = (*Finder)(nil)

func NewFinder(images ...*ProcessImage) *Finder {
	return &Finder{images: images}
}

// Add makes img discoverable, e.g. to simulate a process restart
func (f *Finder) Add(img *ProcessImage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, img)
}

// FindProcess opens the first live image whose name contains name
func (f *Finder) FindProcess(name string) (process.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, img := range f.images {
		if img.isAlive() && strings.Contains(img.name, name) {
			return img.Open(), nil
		}
	}
	return nil, fmt.Errorf("%w: no image name contains %q", process.ErrProcessNotFound, name)
}
