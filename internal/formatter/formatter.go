// package formatter converts WordPress HTML into the shapes stored in Contentful and writes migration reports
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/desertthunder/wpx/internal/models"
)

// RedirectPrefix is the path posts are served under on the new site.
const RedirectPrefix = "/blog/"

// ToMarkdown converts rendered post content to markdown.
func ToMarkdown(content string) (string, error) {
	converter := md.NewConverter("", true, nil)

	out, err := converter.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return out, nil
}

// ToPlainText strips tags from an HTML fragment, decodes entities, and collapses whitespace.
//
// Script and style contents are dropped.
func ToPlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var (
		buf  strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(buf.String()), " ")
		case html.StartTagToken:
			if a := tagAtom(z); a == atom.Script || a == atom.Style {
				skip++
			}
			buf.WriteByte(' ')
		case html.EndTagToken:
			if a := tagAtom(z); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			buf.WriteByte(' ')
		case html.SelfClosingTagToken:
			buf.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				buf.Write(z.Text())
			}
		}
	}
}

func tagAtom(z *html.Tokenizer) atom.Atom {
	name, _ := z.TagName()
	return atom.Lookup(name)
}

// ExtractImages returns the images in an HTML fragment in document order.
//
// The alt text becomes both title and description, with underscores read as spaces. Images without src are skipped.
func ExtractImages(fragment string, postID int) []models.Image {
	z := html.NewTokenizer(strings.NewReader(fragment))
	images := []models.Image{}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return images
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := z.TagName()
		if atom.Lookup(name) != atom.Img || !hasAttr {
			continue
		}

		var src, alt string
		for {
			key, val, more := z.TagAttr()
			switch string(key) {
			case "src":
				src = string(val)
			case "alt":
				alt = strings.ReplaceAll(string(val), "_", " ")
			}
			if !more {
				break
			}
		}

		if src == "" {
			continue
		}
		images = append(images, models.Image{Link: src, Title: alt, Description: alt, PostID: postID})
	}
}

// FormatRedirect renders one redirect line: the old path (link minus base) and the new blog path, separated by five spaces.
func FormatRedirect(r models.Redirect, base string) string {
	source := r.Link
	if base != "" {
		source = strings.Replace(source, base, "", 1)
	}
	return source + "     " + RedirectPrefix + r.Slug
}

// FormatRedirects renders one line per redirect, newline separated, without a trailing newline.
func FormatRedirects(redirects []models.Redirect, base string) []byte {
	lines := make([]string, 0, len(redirects))
	for _, r := range redirects {
		lines = append(lines, FormatRedirect(r, base))
	}
	return []byte(strings.Join(lines, "\n"))
}

// WriteRedirects writes the redirect file at path, creating its directory.
func WriteRedirects(path string, redirects []models.Redirect, base string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create redirects directory: %w", err)
	}
	if err := os.WriteFile(path, FormatRedirects(redirects, base), 0644); err != nil {
		return fmt.Errorf("failed to write redirects: %w", err)
	}
	return nil
}

// FailureRow is one line of a failure report.
type FailureRow struct {
	Identifier string
	Error      string
}

// FailuresToCSV renders failures with columns: Identifier, Error
func FailuresToCSV(rows []FailureRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Identifier", "Error"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write([]string{row.Identifier, row.Error}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFailuresCSV writes a failure report to path.
func WriteFailuresCSV(path string, rows []FailureRow) error {
	data, err := FailuresToCSV(rows)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
