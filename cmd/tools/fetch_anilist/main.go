// Command fetch_anilist writes a shows seed file from AniList's public
// GraphQL API. The server imports it on start (seed.shows_file).
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"streamhub/pkg/database"
)

const defaultEndpoint = "https://graphql.anilist.co"

const mediaQuery = `
query ($page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(type: ANIME, sort: POPULARITY_DESC) {
      title { romaji english native }
      genres
      description
      coverImage { large }
      bannerImage
    }
  }
}`

var tagRe = regexp.MustCompile(`<[^>]+>`)

type gqlReq struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type media struct {
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
		Native  string `json:"native"`
	} `json:"title"`
	Genres      []string `json:"genres"`
	Description *string  `json:"description"`
	CoverImage  struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	BannerImage *string `json:"bannerImage"`
}

type gqlResp struct {
	Data struct {
		Page struct {
			Media []media `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func pickTitle(romaji, english, native string) string {
	if strings.TrimSpace(english) != "" {
		return english
	}
	if strings.TrimSpace(romaji) != "" {
		return romaji
	}
	return native
}

func cleanDesc(s string) string {
	s = html.UnescapeString(s)
	for _, br := range []string{"<br>", "<br/>", "<br />"} {
		s = strings.ReplaceAll(s, br, "\n")
	}
	s = strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
	if r := []rune(s); len(r) > 500 {
		s = string(r[:500]) + "..."
	}
	return s
}

// toSeedShows maps AniList media to seed records in category, dropping
// untitled entries and repeated titles.
func toSeedShows(list []media, category string) []database.SeedShow {
	out := make([]database.SeedShow, 0, len(list))
	seen := map[string]bool{}
	for _, m := range list {
		title := strings.TrimSpace(pickTitle(m.Title.Romaji, m.Title.English, m.Title.Native))
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true

		s := database.SeedShow{
			Title:    title,
			Poster:   m.CoverImage.Large,
			Genres:   strings.Join(m.Genres, ","),
			Category: category,
		}
		if m.Description != nil {
			s.Description = cleanDesc(*m.Description)
		}
		if m.BannerImage != nil {
			s.Banner = *m.BannerImage
		}
		out = append(out, s)
	}
	return out
}

func fetch(ctx context.Context, endpoint string, page, perPage int) ([]media, error) {
	b, err := json.Marshal(gqlReq{
		Query:     mediaQuery,
		Variables: map[string]any{"page": page, "perPage": perPage},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("anilist http status %s: %s", resp.Status, raw)
	}
	var parsed gqlResp
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("anilist gql error: %s", parsed.Errors[0].Message)
	}
	return parsed.Data.Page.Media, nil
}

func run() error {
	outPath := flag.String("out", "data/shows.json", "output json path")
	n := flag.Int("n", 40, "number of shows to fetch")
	page := flag.Int("page", 1, "page number")
	category := flag.String("category", "Anime", "category assigned to every show")
	endpoint := flag.String("endpoint", defaultEndpoint, "AniList GraphQL endpoint")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	list, err := fetch(ctx, *endpoint, *page, *n)
	if err != nil {
		return err
	}
	shows := toSeedShows(list, *category)

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		return err
	}
	j, err := json.MarshalIndent(shows, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*outPath, j, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %d shows -> %s\n", len(shows), *outPath)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fetch_anilist:", err)
		os.Exit(1)
	}
}
