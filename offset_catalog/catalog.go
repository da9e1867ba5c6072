// Package offset_catalog maps target binary fingerprints to the base offset of the
// game options pointer inside GameAssembly.dll.
//
// The catalog is published as a loosely written JSON document:
//
//	{
//	  "6B6A1D1B...": { "GameOptionsOffset": 29015288, ... },
//	  ...
//	}
//
// A Catalog is immutable once built; refreshing means building a new one.
package offset_catalog

import (
	"errors"
	"fmt"
	"sort"

	"ausettings/fingerprint"
)

var (
	ErrFetchFailed    = errors.New("offset catalog fetch failed")
	ErrParseFailed    = errors.New("offset catalog parse failed")
	ErrOffsetNotFound = errors.New("no offset for fingerprint")
)

// Entry is the per-build record of the catalog
type Entry struct {
	BaseOffset uint32
}

type Catalog struct {
	entries map[fingerprint.Fingerprint]Entry
}

// New copies entries into a Catalog
func New(entries map[fingerprint.Fingerprint]Entry) *Catalog {
	c := &Catalog{entries: make(map[fingerprint.Fingerprint]Entry, len(entries))}
	for fp, e := range entries {
		c.entries[fp] = e
	}
	return c
}

// BaseOffset returns the base offset recorded for fp
func (c *Catalog) BaseOffset(fp fingerprint.Fingerprint) (uint32, error) {
	e, ok := c.entries[fp]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrOffsetNotFound, fp)
	}
	return e.BaseOffset, nil
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Fingerprints lists the known builds in sorted order
func (c *Catalog) Fingerprints() []fingerprint.Fingerprint {
	result := make([]fingerprint.Fingerprint, 0, len(c.entries))
	for fp := range c.entries {
		result = append(result, fp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
