package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
	"golang.org/x/text/cases"
)

// normalizeName case-folds a display name and drops all whitespace, so "Jane  Doe" and "janedoe" match.
func normalizeName(name string) string {
	folded := cases.Fold().String(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}

// MatchUsers pairs each WordPress user with the Contentful author of the same normalized name.
//
// Users without a match get a nil Contentful side. The first author per name wins.
func MatchUsers(users []models.WPUser, authors []models.Entry, locale string) []models.AuthorMatch {
	byName := make(map[string]models.Person, len(authors))
	for _, a := range authors {
		raw, ok := a.Fields["name"][locale]
		if !ok {
			continue
		}
		name, ok := raw.(string)
		if !ok || name == "" {
			continue
		}
		key := normalizeName(name)
		if _, dup := byName[key]; dup {
			continue
		}
		byName[key] = models.Person{ID: a.Sys.ID, Name: name}
	}

	matches := make([]models.AuthorMatch, 0, len(users))
	for _, u := range users {
		m := models.AuthorMatch{WordPress: models.WPPerson{ID: u.ID, Name: u.Name}}
		if p, ok := byName[normalizeName(u.Name)]; ok {
			m.Contentful = &p
		}
		matches = append(matches, m)
	}
	return matches
}

// MatchAuthors matches the downloaded WordPress users against the Contentful author entries and
// writes the result to users/transformed/authors.json.
func (e *MigrationEngine) MatchAuthors(ctx context.Context, progress chan<- ProgressUpdate) ([]models.AuthorMatch, error) {
	if err := e.requireDest(); err != nil {
		return nil, err
	}

	users, err := e.loadUsers()
	if err != nil {
		return nil, err
	}

	authors, err := e.dest.ListEntries(ctx, e.opts.AuthorContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s entries: %w", e.opts.AuthorContentType, err)
	}

	matches := MatchUsers(users, authors.Items, e.opts.Locale)

	matched := 0
	for _, m := range matches {
		if m.Contentful != nil {
			matched++
		} else {
			e.logger.Warn("no Contentful author for user", "id", m.WordPress.ID, "name", m.WordPress.Name)
		}
	}
	sendProgress(progress, matchAuthorsUpdate(matched, len(matches)))

	if err := os.MkdirAll(e.opts.Paths.UserTransformed(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", e.opts.Paths.UserTransformed(), err)
	}
	if err := shared.WriteJSON(e.opts.Paths.AuthorsFile(), matches); err != nil {
		return nil, err
	}

	e.logger.Info("authors matched", "users", len(users), "authors", len(authors.Items), "matched", matched)
	return matches, nil
}

func (e *MigrationEngine) loadUsers() ([]models.WPUser, error) {
	dir := e.opts.Paths.UserOriginals()
	files, err := shared.JSONFiles(dir)
	if err != nil {
		return nil, err
	}

	var users []models.WPUser
	for _, name := range files {
		var page []json.RawMessage
		if err := shared.ReadJSON(filepath.Join(dir, name), &page); err != nil {
			return nil, err
		}
		for _, raw := range page {
			var u models.WPUser
			if err := json.Unmarshal(raw, &u); err != nil {
				return nil, fmt.Errorf("invalid user in %s: %w", name, err)
			}
			users = append(users, u)
		}
	}
	return users, nil
}
