package formatter

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/wpx/internal/models"
	th "github.com/desertthunder/wpx/internal/testing"
)

func TestConverters(t *testing.T) {
	t.Run("ToMarkdown", func(t *testing.T) {
		out, err := ToMarkdown(`<h2>Intro</h2><p>Hello <strong>world</strong></p><p><img src="https://example.com/a.jpg" alt="A"/></p>`)
		if err != nil {
			t.Fatalf("ToMarkdown failed: %v", err)
		}

		for _, want := range []string{"## Intro", "**world**", "![A](https://example.com/a.jpg)"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected markdown to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("ToPlainText", func(t *testing.T) {
		tests := []struct {
			name string
			in   string
			want string
		}{
			{"paragraph", "<p>Hello &amp; welcome</p>\n", "Hello & welcome"},
			{"empty", "", ""},
			{"nested", "<div><p>One</p><p>Two</p></div>", "One Two"},
			{"script dropped", "<p>Keep</p><script>var x = 1;</script>", "Keep"},
			{"read more", "<p>Summary [&hellip;]</p>", "Summary […]"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := ToPlainText(tt.in); got != tt.want {
					t.Errorf("ToPlainText(%q) = %q, want %q", tt.in, got, tt.want)
				}
			})
		}
	})

	t.Run("ExtractImages", func(t *testing.T) {
		body := `<p>Intro</p>
<figure><img class="wp-image" src="https://example.com/one.jpg" alt="first_image_alt" /></figure>
<p><img src="https://example.com/two.png"></p>
<img alt="no source">`

		images := ExtractImages(body, 7)
		if len(images) != 2 {
			t.Fatalf("expected 2 images, got %d: %+v", len(images), images)
		}

		first := images[0]
		if first.Link != "https://example.com/one.jpg" {
			t.Errorf("unexpected link %s", first.Link)
		}
		if first.Title != "first image alt" || first.Description != "first image alt" {
			t.Errorf("expected underscores replaced in alt, got %q / %q", first.Title, first.Description)
		}
		if first.PostID != 7 {
			t.Errorf("expected post id 7, got %d", first.PostID)
		}

		if images[1].Link != "https://example.com/two.png" || images[1].Title != "" {
			t.Errorf("unexpected second image %+v", images[1])
		}
	})

	t.Run("ExtractImages none", func(t *testing.T) {
		images := ExtractImages("<p>No images</p>", 1)
		if images == nil || len(images) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", images)
		}
	})
}

func TestRedirects(t *testing.T) {
	redirects := []models.Redirect{
		{Link: "https://old.example.com/2019/01/hello-world/", Slug: "hello-world"},
		{Link: "https://old.example.com/2019/02/second/", Slug: "second"},
	}

	t.Run("FormatRedirect", func(t *testing.T) {
		got := FormatRedirect(redirects[0], "https://old.example.com")
		want := "/2019/01/hello-world/     /blog/hello-world"
		if got != want {
			t.Errorf("FormatRedirect() = %q, want %q", got, want)
		}
	})

	t.Run("FormatRedirect without base", func(t *testing.T) {
		got := FormatRedirect(redirects[1], "")
		if !strings.HasPrefix(got, "https://old.example.com/2019/02/second/") {
			t.Errorf("expected link kept intact, got %q", got)
		}
	})

	t.Run("WriteRedirects", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "redirects", "posts")
		if err := WriteRedirects(path, redirects, "https://old.example.com"); err != nil {
			t.Fatalf("WriteRedirects failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		lines := strings.Split(content, "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines without trailing newline, got %d: %q", len(lines), content)
		}
		if lines[1] != "/2019/02/second/     /blog/second" {
			t.Errorf("unexpected second line %q", lines[1])
		}
	})
}

func TestFailuresCSV(t *testing.T) {
	rows := []FailureRow{
		{Identifier: "hello-world", Error: "post already exists: hello-world"},
		{Identifier: "quoted", Error: `create failed: "bad, request"`},
	}

	data, err := FailuresToCSV(rows)
	if err != nil {
		t.Fatalf("FailuresToCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Identifier" || records[2][1] != `create failed: "bad, request"` {
		t.Errorf("unexpected records %v", records)
	}

	path := filepath.Join(t.TempDir(), "failed.csv")
	if err := WriteFailuresCSV(path, rows); err != nil {
		t.Fatalf("WriteFailuresCSV failed: %v", err)
	}
	th.AssertFileExists(t, path)
}
