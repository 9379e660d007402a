package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// FakeContentful is an in-memory stand-in for the Contentful client used by the upload stages.
//
// It records every call by slug (entries) or upload URL (assets) so tests can assert what reached the remote side.
type FakeContentful struct {
	Locale string

	// Existing maps a slug to the number of entries FindEntries reports for it.
	Existing map[string]int
	// Authors is returned by ListEntries.
	Authors []models.Entry

	// OnFind runs before FindEntries answers; a non-nil error is returned instead.
	OnFind       func(ctx context.Context, slug string) error
	CreateErr    error
	PublishErr   error
	AssetErrs    map[string]error // keyed by upload URL
	ProcessPolls int              // GetAsset calls that still report no file URL

	mu       sync.Mutex
	calls    map[string][]string
	nextID   int
	assets   map[string]*models.Asset
	pending  map[string]int
	entrySlg map[string]string
}

// NewFakeContentful creates a [FakeContentful] with the en-US locale.
func NewFakeContentful() *FakeContentful {
	return &FakeContentful{Locale: "en-US", Existing: map[string]int{}, AssetErrs: map[string]error{}}
}

func (f *FakeContentful) record(kind, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string][]string{}
	}
	f.calls[kind] = append(f.calls[kind], key)
}

// Calls returns the recorded keys for kind: "find", "create", "publish", "list", "asset", "process", "get", "publishAsset".
func (f *FakeContentful) Calls(kind string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls[kind]...)
}

func (f *FakeContentful) newID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *FakeContentful) FindEntries(ctx context.Context, contentType, slug string) (*models.EntryCollection, error) {
	f.record("find", slug)
	if f.OnFind != nil {
		if err := f.OnFind(ctx, slug); err != nil {
			return nil, err
		}
	}

	total := f.Existing[slug]
	coll := &models.EntryCollection{Total: total, Limit: 100}
	for i := range total {
		coll.Items = append(coll.Items, models.Entry{
			Sys:    models.Sys{ID: fmt.Sprintf("existing-%s-%d", slug, i), Type: "Entry"},
			Fields: models.EntryFields{"slug": {f.Locale: slug}},
		})
	}
	return coll, nil
}

func (f *FakeContentful) CreateEntry(ctx context.Context, contentType string, fields models.EntryFields) (*models.Entry, error) {
	slug := fmt.Sprint(fields["slug"][f.Locale])
	f.record("create", slug)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	id := f.newID("entry")
	f.mu.Lock()
	if f.entrySlg == nil {
		f.entrySlg = map[string]string{}
	}
	f.entrySlg[id] = slug
	f.mu.Unlock()

	return &models.Entry{Sys: models.Sys{ID: id, Type: "Entry", Version: 1}, Fields: fields}, nil
}

func (f *FakeContentful) PublishEntry(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	f.mu.Lock()
	slug := f.entrySlg[entry.Sys.ID]
	f.mu.Unlock()

	f.record("publish", slug)
	if f.PublishErr != nil {
		return nil, f.PublishErr
	}

	published := *entry
	published.Sys.Version = entry.Sys.Version + 1
	published.Sys.PublishedVersion = entry.Sys.Version
	return &published, nil
}

func (f *FakeContentful) ListEntries(ctx context.Context, contentType string) (*models.EntryCollection, error) {
	f.record("list", contentType)
	return &models.EntryCollection{Total: len(f.Authors), Limit: len(f.Authors), Items: f.Authors}, nil
}

func (f *FakeContentful) CreateAsset(ctx context.Context, fields models.AssetFields) (*models.Asset, error) {
	upload := fields.File[f.Locale].Upload
	f.record("asset", upload)
	if err := f.AssetErrs[upload]; err != nil {
		return nil, err
	}

	asset := &models.Asset{Sys: models.Sys{ID: f.newID("asset"), Type: "Asset", Version: 1}, Fields: fields}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assets == nil {
		f.assets = map[string]*models.Asset{}
		f.pending = map[string]int{}
	}
	f.assets[asset.Sys.ID] = asset
	return asset, nil
}

func (f *FakeContentful) ProcessAsset(ctx context.Context, asset *models.Asset) error {
	f.record("process", asset.Sys.ID)

	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.assets[asset.Sys.ID]
	if !ok {
		return fmt.Errorf("%w: asset %s", shared.ErrNotFound, asset.Sys.ID)
	}
	stored.Sys.Version++
	f.pending[asset.Sys.ID] = f.ProcessPolls
	return nil
}

func (f *FakeContentful) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	f.record("get", id)

	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: asset %s", shared.ErrNotFound, id)
	}

	cp := *stored
	file := stored.Fields.File[f.Locale]
	if f.pending[id] > 0 {
		f.pending[id]--
	} else {
		file.URL = "//images.ctfassets.net/space/" + id + "/" + file.FileName
	}
	cp.Fields.File = map[string]models.AssetFile{f.Locale: file}
	return &cp, nil
}

func (f *FakeContentful) PublishAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	f.record("publishAsset", asset.Sys.ID)
	published := *asset
	published.Sys.PublishedVersion = asset.Sys.Version
	return &published, nil
}

// FakeSource serves WordPress pages and media from memory.
type FakeSource struct {
	// Pages holds the items of each page per resource; pages past the end report [shared.ErrEndOfPages].
	Pages      map[string][][]any
	MediaItems map[int]*models.WPMedia
	// Err, when set, is returned for the page number in ErrPage.
	Err     error
	ErrPage int

	mu    sync.Mutex
	calls []string
}

func (s *FakeSource) Page(ctx context.Context, resource string, n int) ([]json.RawMessage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, fmt.Sprintf("%s/%d", resource, n))
	s.mu.Unlock()

	if s.Err != nil && n == s.ErrPage {
		return nil, s.Err
	}

	pages := s.Pages[resource]
	if n < 1 || n > len(pages) {
		return nil, shared.ErrEndOfPages
	}

	items := make([]json.RawMessage, 0, len(pages[n-1]))
	for _, v := range pages[n-1] {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		items = append(items, data)
	}
	return items, nil
}

func (s *FakeSource) Media(ctx context.Context, id int) (*models.WPMedia, error) {
	s.mu.Lock()
	s.calls = append(s.calls, fmt.Sprintf("media/%d", id))
	s.mu.Unlock()

	m, ok := s.MediaItems[id]
	if !ok {
		return nil, fmt.Errorf("%w: media %d", shared.ErrNotFound, id)
	}
	return m, nil
}

// Calls returns the requested pages and media as "resource/n" strings in request order.
func (s *FakeSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
