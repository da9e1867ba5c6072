package offset_catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ausettings/fingerprint"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "AAAA": { "GameOptionsOffset": 29015288, "MeetingHudOffset": 1 },
  "bbbb": { "GameOptionsOffset": 32 },
  "CCCC": { "MeetingHudOffset": 5 },
  "DDDD": { "GameOptionsOffset": 4294967296 },
  "EEEE": "not an object"
}`

func TestParseStrict(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []fingerprint.Fingerprint{"AAAA", "BBBB"}, c.Fingerprints())

	off, err := c.BaseOffset("AAAA")
	require.NoError(t, err)
	assert.Equal(t, uint32(29015288), off)

	off, err = c.BaseOffset("BBBB")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20), off)
}

func TestParseRelaxed(t *testing.T) {
	doc := `# hand edited
{
  "AAAA": { "GameOptionsOffset": 0x1BAB9F8, },
  BBBB: { GameOptionsOffset: 64 },
}`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	off, err := c.BaseOffset("AAAA")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1BAB9F8), off)

	off, err = c.BaseOffset("BBBB")
	require.NoError(t, err)
	assert.Equal(t, uint32(64), off)
}

func TestParseComments(t *testing.T) {
	docs := map[string]string{
		"line":  "{\n  // build from the store\n  \"AAAA\": {\"GameOptionsOffset\": 32},\n}",
		"block": "{ /* x */ \"AAAA\": {\"GameOptionsOffset\": 32}, }",
		"multiline block": "{\n  /* steam\n     build */\n  \"AAAA\": {\"GameOptionsOffset\": 32 /* 0x20 */},\n}",
	}
	for name, doc := range docs {
		c, err := Parse([]byte(doc))
		require.NoError(t, err, name)

		off, err := c.BaseOffset("AAAA")
		require.NoError(t, err, name)
		assert.Equal(t, uint32(32), off, name)
	}
}

func TestParseCommentMarkersInStrings(t *testing.T) {
	doc := "{ 'http://a/*b': {GameOptionsOffset: 7}, \"CC//DD\": {GameOptionsOffset: 8}, }"
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	off, err := c.BaseOffset("HTTP://A/*B")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), off)

	off, err = c.BaseOffset("CC//DD")
	require.NoError(t, err)
	assert.Equal(t, uint32(8), off)

	_, err = Parse([]byte("{ /* open, \"AAAA\": {\"GameOptionsOffset\": 32} }"))
	assert.True(t, errors.Is(err, ErrParseFailed))
}

func TestParseFailed(t *testing.T) {
	for _, doc := range []string{`[1, 2, 3]`, `"text"`, ``, `{ "a": [ }`} {
		_, err := Parse([]byte(doc))
		assert.True(t, errors.Is(err, ErrParseFailed), "document %q", doc)
	}
}

func TestBaseOffsetMatchesEveryEntry(t *testing.T) {
	entries := map[fingerprint.Fingerprint]Entry{
		"01": {BaseOffset: 1},
		"02": {BaseOffset: 0xFFFFFFFF},
		"03": {BaseOffset: 0},
	}
	c := New(entries)
	for fp, e := range entries {
		off, err := c.BaseOffset(fp)
		require.NoError(t, err)
		assert.Equal(t, e.BaseOffset, off)
	}

	_, err := c.BaseOffset("04")
	assert.True(t, errors.Is(err, ErrOffsetNotFound))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	c, err := NewFetcher(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestFetchErrorsAreDistinct(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	_, err := NewFetcher(notFound.URL, time.Second).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.False(t, errors.Is(err, ErrParseFailed))

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer garbage.Close()

	_, err = NewFetcher(garbage.URL, time.Second).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrParseFailed))
	assert.False(t, errors.Is(err, ErrFetchFailed))

	large := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sample))
	}))
	defer large.Close()

	f := NewFetcher(large.URL, time.Second)
	f.maxSize = int64(len(sample)) - 1
	_, err = f.Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.False(t, errors.Is(err, ErrParseFailed))

	f.maxSize = int64(len(sample))
	_, err = f.Fetch(context.Background())
	assert.NoError(t, err)

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	_, err = NewFetcher(url, time.Second).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrFetchFailed))
}

func TestFileSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/img/offsets.json", []byte(sample), 0o644))

	c, err := NewFileSource(fs, "/img/offsets.json").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = NewFileSource(fs, "/img/missing.json").Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrFetchFailed))
}
