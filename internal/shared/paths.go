package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Paths describes the on-disk layout of a migration run below the output directory.
type Paths struct {
	Root string
}

// NewPaths returns the layout rooted at dir.
func NewPaths(dir string) Paths {
	return Paths{Root: dir}
}

func (p Paths) PostOriginals() string   { return filepath.Join(p.Root, "posts", "originals") }
func (p Paths) PostTransformed() string { return filepath.Join(p.Root, "posts", "transformed") }
func (p Paths) PostCreated() string     { return filepath.Join(p.Root, "posts", "created") }
func (p Paths) UserOriginals() string   { return filepath.Join(p.Root, "users", "originals") }
func (p Paths) UserTransformed() string { return filepath.Join(p.Root, "users", "transformed") }
func (p Paths) AssetList() string       { return filepath.Join(p.Root, "assets", "list") }
func (p Paths) Redirects() string       { return filepath.Join(p.Root, "redirects") }

// AssetsFile is the list of images referenced by transformed posts.
func (p Paths) AssetsFile() string { return filepath.Join(p.AssetList(), "assets.json") }

// AssetsDoneFile holds uploaded assets with their Contentful ids and URLs.
func (p Paths) AssetsDoneFile() string { return filepath.Join(p.AssetList(), "done.json") }

// AssetsFailedFile holds assets that could not be uploaded.
func (p Paths) AssetsFailedFile() string { return filepath.Join(p.AssetList(), "failed.json") }

// AuthorsFile holds WordPress users matched to Contentful authors.
func (p Paths) AuthorsFile() string { return filepath.Join(p.UserTransformed(), "authors.json") }

// PostResultsFile holds the done/failed summary of the post upload.
func (p Paths) PostResultsFile() string { return filepath.Join(p.PostCreated(), "posts.json") }

// PostEntriesFile maps each created post slug to its Contentful entry id.
func (p Paths) PostEntriesFile() string { return filepath.Join(p.PostCreated(), "entries.json") }

// RedirectsFile holds one redirect rule per migrated post.
func (p Paths) RedirectsFile() string { return filepath.Join(p.Redirects(), "posts") }

// Clean removes the output directory and everything under it.
func (p Paths) Clean() error {
	if p.Root == "" || p.Root == "/" || p.Root == "." {
		return fmt.Errorf("%w: refusing to clean output directory %q", ErrInvalidConfig, p.Root)
	}
	if err := os.RemoveAll(p.Root); err != nil {
		return fmt.Errorf("failed to clean %s: %w", p.Root, err)
	}
	return nil
}

// JSONFiles returns the names of the .json files in dir, sorted.
func JSONFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = filepath.Base(m)
	}
	sort.Strings(names)
	return names, nil
}
