package render_test

import (
	"testing/fstest"
)

// templates builds an in-memory template directory from path/contents pairs.
// Normally you'd use embed.FS or os.DirFS for this.
func templates(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for path, contents := range files {
		fsys[path] = &fstest.MapFile{Data: []byte(contents), Mode: 0o444}
	}
	return fsys
}
