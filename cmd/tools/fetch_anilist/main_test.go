package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{"data":{"Page":{"media":[
 {"title":{"romaji":"Shingeki no Kyojin","english":"Attack on Titan","native":"進撃の巨人"},
  "genres":["Action","Drama"],"description":"Humanity&#039;s last stand.<br>Walls fall.",
  "coverImage":{"large":"https://img.example/aot.jpg"},"bannerImage":"https://img.example/aot-banner.jpg"},
 {"title":{"romaji":"Cowboy Bebop","english":"","native":""},
  "genres":["Sci-Fi"],"description":null,"coverImage":{"large":"https://img.example/cb.jpg"},"bannerImage":null},
 {"title":{"romaji":"Cowboy Bebop","english":"","native":""},"genres":[],"coverImage":{"large":""}},
 {"title":{"romaji":"","english":"","native":""},"genres":[],"coverImage":{"large":""}}
]}}}`

func TestFetchAndConvert(t *testing.T) {
	var gotBody gqlReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	list, err := fetch(context.Background(), srv.URL, 2, 10)
	require.NoError(t, err)
	assert.Contains(t, gotBody.Query, "type: ANIME")
	assert.EqualValues(t, 2, gotBody.Variables["page"])

	shows := toSeedShows(list, "Anime")
	require.Len(t, shows, 2)

	assert.Equal(t, "Attack on Titan", shows[0].Title)
	assert.Equal(t, "Action,Drama", shows[0].Genres)
	assert.Equal(t, "Humanity's last stand.\nWalls fall.", shows[0].Description)
	assert.Equal(t, "https://img.example/aot.jpg", shows[0].Poster)
	assert.Equal(t, "https://img.example/aot-banner.jpg", shows[0].Banner)
	assert.Equal(t, "Anime", shows[0].Category)

	assert.Equal(t, "Cowboy Bebop", shows[1].Title)
	assert.Empty(t, shows[1].Banner)
	assert.Empty(t, shows[1].Description)
}

func TestFetchSurfacesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Too Many Requests."}]}`))
	}))
	defer srv.Close()

	_, err := fetch(context.Background(), srv.URL, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too Many Requests.")
}
