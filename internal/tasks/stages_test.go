package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
	th "github.com/desertthunder/wpx/internal/testing"
)

type fakeRecorder struct {
	mu       sync.Mutex
	runs     []*models.UploadRun
	outcomes [][]*models.UploadOutcome
	err      error
}

func (r *fakeRecorder) RecordRun(run *models.UploadRun, outcomes []*models.UploadOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	r.outcomes = append(r.outcomes, outcomes)
	return r.err
}

func wpPost(id int, slug, content string, media int) models.WPPost {
	return models.WPPost{
		ID:            id,
		DateGMT:       "2020-01-02T03:04:05",
		Slug:          slug,
		Link:          "https://wp.example.com/2020/01/" + slug + "/",
		Title:         models.Rendered{Rendered: "Title " + slug},
		Content:       models.Rendered{Rendered: content},
		Excerpt:       models.Rendered{Rendered: "<p>Summary of " + slug + "</p>\n"},
		Author:        1,
		FeaturedMedia: media,
		Categories:    []int{4, 9},
		Tags:          []int{2},
	}
}

func testSource() *th.FakeSource {
	return &th.FakeSource{
		Pages: map[string][][]any{
			"users": {
				{models.WPUser{ID: 1, Name: "Jane Doe"}},
				{models.WPUser{ID: 2, Name: "Guest Writer"}},
				{},
			},
			"posts": {
				{
					wpPost(10, "hello-world", `<p>Hi <img src="https://wp.example.com/uploads/inline.jpg" alt="inline_shot"></p>`, 11),
					wpPost(12, "", "<p>draft</p>", 0),
				},
				{
					wpPost(20, "second-post", `<p><img src="https://wp.example.com/uploads/inline.jpg"></p>`, 404),
				},
			},
		},
		MediaItems: map[int]*models.WPMedia{
			11: {
				ID:      11,
				GUID:    models.Rendered{Rendered: "https://wp.example.com/uploads/featured.png"},
				Title:   models.Rendered{Rendered: "Featured"},
				AltText: "A featured image",
			},
		},
	}
}

func testDest() *th.FakeContentful {
	fake := th.NewFakeContentful()
	fake.ProcessPolls = 1
	fake.Authors = []models.Entry{
		{Sys: models.Sys{ID: "author-jane"}, Fields: models.EntryFields{"name": {"en-US": "JANE  DOE"}}},
		{Sys: models.Sys{ID: "author-other"}, Fields: models.EntryFields{"name": {"en-US": "Someone Else"}}},
	}
	return fake
}

func newTestEngine(t *testing.T, source SourceClient, dest ContentfulClient) (*MigrationEngine, shared.Paths, *fakeRecorder) {
	t.Helper()
	paths := shared.NewPaths(filepath.Join(t.TempDir(), "dist"))
	rec := &fakeRecorder{}
	engine := NewMigrationEngine(source, dest, EngineOpts{
		Paths:            paths,
		RedirectBaseURL:  "https://wp.example.com",
		FallbackAuthorID: "fallback-author",
		Concurrency:      2,
		Timeout:          2 * time.Second,
		PollInterval:     time.Millisecond,
		Recorder:         rec,
	})
	return engine, paths, rec
}

func TestDownload(t *testing.T) {
	t.Run("users stop at empty page", func(t *testing.T) {
		engine, paths, _ := newTestEngine(t, testSource(), nil)

		pages, err := engine.DownloadUsers(context.Background(), nil)
		if err != nil {
			t.Fatalf("DownloadUsers failed: %v", err)
		}
		if pages != 2 {
			t.Errorf("expected 2 pages, got %d", pages)
		}
		th.AssertFileExists(t, filepath.Join(paths.UserOriginals(), "users-1.json"))
		th.AssertFileExists(t, filepath.Join(paths.UserOriginals(), "users-2.json"))
	})

	t.Run("posts stop at end of pages", func(t *testing.T) {
		source := testSource()
		engine, paths, _ := newTestEngine(t, source, nil)
		progress := make(chan ProgressUpdate, 10)

		pages, err := engine.DownloadPosts(context.Background(), progress)
		if err != nil {
			t.Fatalf("DownloadPosts failed: %v", err)
		}
		if pages != 2 {
			t.Errorf("expected 2 pages, got %d", pages)
		}

		files, _ := shared.JSONFiles(paths.PostOriginals())
		if len(files) != 2 || files[0] != "posts-1.json" {
			t.Errorf("unexpected files %v", files)
		}

		calls := source.Calls()
		if len(calls) != 3 || calls[2] != "posts/3" {
			t.Errorf("expected three page requests, got %v", calls)
		}

		first := <-progress
		if first.Message != "Getting posts by page (1)" {
			t.Errorf("unexpected progress message %q", first.Message)
		}
	})

	t.Run("page error", func(t *testing.T) {
		source := testSource()
		source.Err = shared.ErrAPIRequest
		source.ErrPage = 2
		engine, _, _ := newTestEngine(t, source, nil)

		pages, err := engine.DownloadPosts(context.Background(), nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if pages != 1 {
			t.Errorf("expected 1 page saved before the error, got %d", pages)
		}
	})

	t.Run("requires source", func(t *testing.T) {
		engine, _, _ := newTestEngine(t, nil, nil)
		if _, err := engine.DownloadPosts(context.Background(), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestTransformWPPost(t *testing.T) {
	wp := wpPost(10, "hello-world", `<h2>Intro</h2><p>Hi <img src="https://wp.example.com/a.jpg" alt="an_image"></p>`, 11)

	post, err := TransformWPPost(wp)
	if err != nil {
		t.Fatalf("TransformWPPost failed: %v", err)
	}

	if post.Date != "2020-01-02T03:04:05+00:00" {
		t.Errorf("unexpected date %q", post.Date)
	}
	if post.Category != 4 {
		t.Errorf("expected first category, got %d", post.Category)
	}
	if post.Description != "Summary of hello-world" {
		t.Errorf("unexpected description %q", post.Description)
	}
	if !strings.Contains(post.Body, "## Intro") {
		t.Errorf("expected markdown body, got %q", post.Body)
	}
	if len(post.BodyImages) != 1 || post.BodyImages[0].Title != "an image" || post.BodyImages[0].PostID != 10 {
		t.Errorf("unexpected body images %+v", post.BodyImages)
	}

	bare, err := TransformWPPost(models.WPPost{ID: 1, Slug: "bare"})
	if err != nil {
		t.Fatalf("TransformWPPost failed: %v", err)
	}
	if bare.Category != 0 || bare.Tags == nil {
		t.Errorf("expected zero category and empty tags, got %d / %v", bare.Category, bare.Tags)
	}
}

func TestStages(t *testing.T) {
	ctx := context.Background()
	source, dest := testSource(), testDest()
	engine, paths, rec := newTestEngine(t, source, dest)

	if _, err := engine.DownloadUsers(ctx, nil); err != nil {
		t.Fatalf("DownloadUsers failed: %v", err)
	}
	if _, err := engine.DownloadPosts(ctx, nil); err != nil {
		t.Fatalf("DownloadPosts failed: %v", err)
	}

	t.Run("TransformPosts", func(t *testing.T) {
		n, err := engine.TransformPosts(ctx, nil)
		if err != nil {
			t.Fatalf("TransformPosts failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 posts (draft without slug skipped), got %d", n)
		}

		th.AssertFileExists(t, filepath.Join(paths.PostTransformed(), "hello-world.json"))
		th.AssertFileExists(t, filepath.Join(paths.PostTransformed(), "second-post.json"))

		redirects := th.MustReadFile(t, paths.RedirectsFile())
		want := "/2020/01/hello-world/     /blog/hello-world\n/2020/01/second-post/     /blog/second-post"
		if redirects != want {
			t.Errorf("redirects = %q, want %q", redirects, want)
		}
	})

	t.Run("BuildAssetList", func(t *testing.T) {
		images, err := engine.BuildAssetList(ctx, nil)
		if err != nil {
			t.Fatalf("BuildAssetList failed: %v", err)
		}
		if len(images) != 3 {
			t.Fatalf("expected featured + 2 inline images, got %d: %+v", len(images), images)
		}
		if images[0].MediaNumber != 11 || images[0].Link != "https://wp.example.com/uploads/featured.png" {
			t.Errorf("expected featured image first, got %+v", images[0])
		}
		if images[0].Description != "A featured image" {
			t.Errorf("expected alt text as description, got %q", images[0].Description)
		}
		th.AssertFileExists(t, paths.AssetsFile())
	})

	t.Run("UploadAssets", func(t *testing.T) {
		res, err := engine.UploadAssets(ctx, nil)
		if err != nil {
			t.Fatalf("UploadAssets failed: %v", err)
		}
		if len(res.Done) != 2 || len(res.Failed) != 0 {
			t.Fatalf("expected 2 unique assets uploaded, got %d/%d", len(res.Done), len(res.Failed))
		}
		if got := len(dest.Calls("asset")); got != 2 {
			t.Errorf("expected shared image uploaded once, got %d creates", got)
		}

		var records []models.AssetRecord
		if err := shared.ReadJSON(paths.AssetsDoneFile(), &records); err != nil {
			t.Fatalf("failed to read done file: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected one record per listed image, got %d", len(records))
		}
		if records[1].Contentful != records[2].Contentful {
			t.Errorf("expected shared inline image to reuse one asset, got %+v and %+v", records[1].Contentful, records[2].Contentful)
		}
		for _, r := range records {
			if !strings.HasPrefix(r.Contentful.URL, "https://images.ctfassets.net/") {
				t.Errorf("expected absolute https URL, got %q", r.Contentful.URL)
			}
			if r.Contentful.ID == "" {
				t.Errorf("expected asset id for %s", r.WordPress.Link)
			}
		}
		th.AssertFileExists(t, paths.AssetsFailedFile())
	})

	t.Run("MatchAuthors", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 1)
		matches, err := engine.MatchAuthors(ctx, progress)
		if err != nil {
			t.Fatalf("MatchAuthors failed: %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected 2 users, got %d", len(matches))
		}
		if matches[0].Contentful == nil || matches[0].Contentful.ID != "author-jane" {
			t.Errorf("expected Jane Doe matched to author-jane, got %+v", matches[0].Contentful)
		}
		if matches[1].Contentful != nil {
			t.Errorf("expected no match for guest, got %+v", matches[1].Contentful)
		}
		if u := <-progress; u.Message != "Matched 1 of 2 authors" {
			t.Errorf("unexpected progress %q", u.Message)
		}
	})

	t.Run("CreatePosts", func(t *testing.T) {
		dest.Existing["second-post"] = 1

		res, err := engine.CreatePosts(ctx, nil)
		if err != nil {
			t.Fatalf("CreatePosts failed: %v", err)
		}
		if len(res.Done) != 1 || res.Done[0].Slug != "hello-world" {
			t.Errorf("expected hello-world created, got %+v", res.Done)
		}
		if len(res.Failed) != 1 || !errors.Is(res.Failed[0].Err, shared.ErrAlreadyExists) {
			t.Errorf("expected second-post to already exist, got %+v", res.Failed)
		}

		var saved struct {
			Done   []models.Post `json:"done"`
			Failed []struct {
				Item  models.Post `json:"item"`
				Error string      `json:"error"`
			} `json:"failed"`
		}
		if err := shared.ReadJSON(paths.PostResultsFile(), &saved); err != nil {
			t.Fatalf("failed to read results: %v", err)
		}
		if len(saved.Done) != 1 || len(saved.Failed) != 1 || saved.Failed[0].Error == "" {
			t.Errorf("unexpected saved results %+v", saved)
		}

		var entries map[string]string
		if err := shared.ReadJSON(paths.PostEntriesFile(), &entries); err != nil {
			t.Fatalf("failed to read entry ids: %v", err)
		}
		if len(entries) != 1 || entries["hello-world"] == "" {
			t.Errorf("expected entry id for hello-world only, got %v", entries)
		}
	})

	t.Run("recorded runs", func(t *testing.T) {
		if len(rec.runs) != 2 {
			t.Fatalf("expected asset and post runs recorded, got %d", len(rec.runs))
		}
		if rec.runs[0].Kind() != models.RunKindAssets || rec.runs[1].Kind() != models.RunKindPosts {
			t.Errorf("unexpected run kinds %s, %s", rec.runs[0].Kind(), rec.runs[1].Kind())
		}
		if !rec.runs[1].Completed() || rec.runs[1].Succeeded() != 1 || rec.runs[1].Failed() != 1 {
			t.Errorf("unexpected post run counts %d/%d", rec.runs[1].Succeeded(), rec.runs[1].Failed())
		}
		if len(rec.outcomes[1]) != 2 {
			t.Errorf("expected 2 post outcomes, got %d", len(rec.outcomes[1]))
		}
	})
}

func TestAssetWriter(t *testing.T) {
	img := models.Image{Link: "https://wp.example.com/uploads/photo.JPG", Title: "Photo"}

	t.Run("processing never finishes", func(t *testing.T) {
		fake := th.NewFakeContentful()
		fake.ProcessPolls = 5

		w := NewAssetWriter(fake, AssetWriterOpts{PollInterval: time.Millisecond, MaxPolls: 2})
		err := w.Write(context.Background(), img)
		if !errors.Is(err, shared.ErrAssetProcessing) {
			t.Fatalf("expected ErrAssetProcessing, got %v", err)
		}
		if len(fake.Calls("get")) != 2 || len(fake.Calls("publishAsset")) != 0 {
			t.Errorf("expected 2 polls and no publish, got %v / %v", fake.Calls("get"), fake.Calls("publishAsset"))
		}
		if len(w.Records([]models.Image{img})) != 0 {
			t.Error("failed asset must not be recorded")
		}
	})

	t.Run("create error", func(t *testing.T) {
		fake := th.NewFakeContentful()
		fake.AssetErrs[img.Link] = errors.New("415 unsupported")

		w := NewAssetWriter(fake, AssetWriterOpts{PollInterval: time.Millisecond})
		if err := w.Write(context.Background(), img); !errors.Is(err, shared.ErrRemoteWrite) {
			t.Errorf("expected ErrRemoteWrite, got %v", err)
		}
	})

	t.Run("fields", func(t *testing.T) {
		w := NewAssetWriter(th.NewFakeContentful(), AssetWriterOpts{})
		fields := w.fields(models.Image{Link: "https://wp.example.com/uploads/2020/01/photo.JPG?ver=2"})

		file := fields.File["en-US"]
		if file.FileName != "photo.JPG" || file.ContentType != "image/jpeg" {
			t.Errorf("unexpected file %+v", file)
		}
		if fields.Title["en-US"] != "photo.JPG" {
			t.Errorf("expected file name as fallback title, got %q", fields.Title["en-US"])
		}
	})
}

func TestUploadAssetsListedImages(t *testing.T) {
	ctx := context.Background()

	t.Run("featured image also used in a body keeps its media number", func(t *testing.T) {
		dest := testDest()
		engine, paths, _ := newTestEngine(t, testSource(), dest)
		link := "https://wp.example.com/uploads/shared.png"
		listed := []models.Image{
			{Link: link, PostID: 10},
			{Link: link, MediaNumber: 77, PostID: 20},
		}
		if err := shared.WriteJSON(paths.AssetsFile(), listed); err != nil {
			t.Fatal(err)
		}

		res, err := engine.UploadAssets(ctx, nil)
		if err != nil {
			t.Fatalf("UploadAssets failed: %v", err)
		}
		if len(res.Done) != 1 || len(dest.Calls("asset")) != 1 {
			t.Fatalf("expected one upload for the shared link, got %d done, %v", len(res.Done), dest.Calls("asset"))
		}

		var records []models.AssetRecord
		if err := shared.ReadJSON(paths.AssetsDoneFile(), &records); err != nil {
			t.Fatalf("failed to read done file: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected a record per listed image, got %+v", records)
		}

		refs, err := NewReferenceMaps(records, nil)
		if err != nil {
			t.Fatalf("NewReferenceMaps failed: %v", err)
		}
		if refs.Media[77] == "" || refs.Media[77] != records[0].Contentful.ID {
			t.Errorf("expected media 77 to resolve to %q, got %v", records[0].Contentful.ID, refs.Media)
		}
		if len(refs.Inline) != 1 {
			t.Errorf("expected one inline pair, got %+v", refs.Inline)
		}
	})

	t.Run("image without a link is skipped", func(t *testing.T) {
		dest := testDest()
		engine, paths, _ := newTestEngine(t, testSource(), dest)
		listed := []models.Image{
			{Link: "https://wp.example.com/uploads/a.png"},
			{MediaNumber: 5},
		}
		if err := shared.WriteJSON(paths.AssetsFile(), listed); err != nil {
			t.Fatal(err)
		}

		res, err := engine.UploadAssets(ctx, nil)
		if err != nil {
			t.Fatalf("UploadAssets failed: %v", err)
		}
		if len(res.Done) != 1 || len(res.Failed) != 0 {
			t.Errorf("expected the linked image uploaded, got %d/%d", len(res.Done), len(res.Failed))
		}
		if calls := dest.Calls("asset"); len(calls) != 1 || calls[0] != listed[0].Link {
			t.Errorf("unexpected asset calls %v", calls)
		}
	})
}

func TestBuildAssetListSkipsMediaWithoutURL(t *testing.T) {
	source := testSource()
	source.MediaItems[30] = &models.WPMedia{ID: 30, Title: models.Rendered{Rendered: "Broken"}}
	engine, paths, _ := newTestEngine(t, source, testDest())

	post := testPost("broken-media")
	post.FeaturedMedia = 30
	post.BodyImages = []models.Image{{Link: "https://wp.example.com/uploads/body.png", PostID: 1}}
	if err := shared.WriteJSON(filepath.Join(paths.PostTransformed(), "broken-media.json"), post); err != nil {
		t.Fatal(err)
	}

	images, err := engine.BuildAssetList(context.Background(), nil)
	if err != nil {
		t.Fatalf("BuildAssetList failed: %v", err)
	}
	if len(images) != 1 || images[0].Link != "https://wp.example.com/uploads/body.png" {
		t.Errorf("expected only the body image, got %+v", images)
	}
}

func TestCreatePostsRequiresEarlierStages(t *testing.T) {
	engine, paths, _ := newTestEngine(t, testSource(), testDest())
	if err := shared.WriteJSON(filepath.Join(paths.PostTransformed(), "a.json"), testPost("a")); err != nil {
		t.Fatal(err)
	}

	_, err := engine.CreatePosts(context.Background(), nil)
	if !errors.Is(err, shared.ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "contentful assets") {
		t.Errorf("expected hint to run the asset stage, got %v", err)
	}
}

func TestCreatePostsMalformedReferences(t *testing.T) {
	engine, paths, _ := newTestEngine(t, testSource(), testDest())
	writes := map[string]any{
		filepath.Join(paths.PostTransformed(), "a.json"): testPost("a"),
		paths.AssetsDoneFile():                            []models.AssetRecord{{WordPress: models.Image{Link: "https://wp/x.jpg"}}},
		paths.AuthorsFile():                               []models.AuthorMatch{},
	}
	for path, v := range writes {
		if err := shared.WriteJSON(path, v); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := engine.CreatePosts(context.Background(), nil); !errors.Is(err, shared.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestMigrate(t *testing.T) {
	engine, paths, _ := newTestEngine(t, testSource(), testDest())

	// leftovers from a previous run are cleaned
	stale := filepath.Join(paths.PostTransformed(), "stale.json")
	if err := shared.WriteJSON(stale, testPost("stale")); err != nil {
		t.Fatal(err)
	}

	summary, err := engine.Migrate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if summary.UserPages != 2 || summary.PostPages != 2 || summary.Posts != 2 || summary.Images != 3 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(summary.Assets.Done) != 2 || len(summary.Authors) != 2 || len(summary.Created.Done) != 2 {
		t.Errorf("unexpected upload results: assets=%d authors=%d posts=%d",
			len(summary.Assets.Done), len(summary.Authors), len(summary.Created.Done))
	}

	files, _ := shared.JSONFiles(paths.PostTransformed())
	for _, f := range files {
		if f == "stale.json" {
			t.Error("expected stale output to be cleaned")
		}
	}
}

func TestMatchUsers(t *testing.T) {
	users := []models.WPUser{{ID: 1, Name: "José  Álvarez"}, {ID: 2, Name: "STRASSE"}, {ID: 3, Name: "Unmatched"}}
	authors := []models.Entry{
		{Sys: models.Sys{ID: "a1"}, Fields: models.EntryFields{"name": {"en-US": "josé álvarez"}}},
		{Sys: models.Sys{ID: "a2"}, Fields: models.EntryFields{"name": {"en-US": "Strasse"}}},
		{Sys: models.Sys{ID: "a3"}, Fields: models.EntryFields{"name": {"de-DE": "Unmatched"}}},
		{Sys: models.Sys{ID: "a4"}, Fields: models.EntryFields{"name": {"en-US": "josealvarez"}}},
	}

	matches := MatchUsers(users, authors, "en-US")
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}

	want := []string{"a1", "a2", ""}
	for i, m := range matches {
		got := ""
		if m.Contentful != nil {
			got = m.Contentful.ID
		}
		if got != want[i] {
			t.Errorf("user %s: got %q, want %q", m.WordPress.Name, got, want[i])
		}
	}
}
