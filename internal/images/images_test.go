package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen/internal/cache"
	"sitegen/internal/tree"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "coffee shop", r.URL.Query().Get("query"))
		assert.Equal(t, "800", r.URL.Query().Get("width"))
		assert.Equal(t, "600", r.URL.Query().Get("height"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`{"results":[
			{"url":"https://img.test/a.jpg"},
			{"urls":{"regular":"https://img.test/b.jpg"}},
			{"url":"https://img.test/c.jpg"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "k"})
	urls, err := c.Search(context.Background(), "coffee shop", 800, 600, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.test/a.jpg", "https://img.test/b.jpg"}, urls)
}

func TestClient_SearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL}).Search(context.Background(), "x", 1, 1, 1)
	assert.ErrorContains(t, err, "status 502")
	assert.Nil(t, NewClient(ClientConfig{}))
}

func TestCategory(t *testing.T) {
	cases := map[string]string{
		"Artisan coffee roastery":  "food",
		"team-member-avatar":       "people",
		"AI writing assistant":     "technology",
		"fresh air purifiers":      DefaultCategory,
		"boutique real estate":     "home",
		"yoga studio in Lisbon":    "fitness",
		"":                         DefaultCategory,
		"consulting for startups":  "technology",
		"corporate law consulting": "business",
	}
	for in, want := range cases {
		assert.Equal(t, want, Category(in), in)
	}
}

func TestUsable(t *testing.T) {
	assert.True(t, usable("https://images.test/photo.jpg"))
	assert.True(t, usable("data:image/png;base64,AAAA"))
	assert.False(t, usable(""))
	assert.False(t, usable("/images/hero.jpg"))
	assert.False(t, usable("https://via.placeholder.com/300"))
	assert.False(t, usable("https://example.com/team.png"))
	assert.False(t, usable("{{heroImage}}"))
}

type failingSearcher struct{ calls int }

func (f *failingSearcher) Search(context.Context, string, int, int, int) ([]string, error) {
	f.calls++
	return nil, errors.New("service down")
}

type countingSearcher struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSearcher) Search(_ context.Context, query string, _, _, _ int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return []string{"https://img.test/" + strings.ReplaceAll(query, " ", "-") + ".jpg"}, nil
}

type mapStore map[string][]string

func (m mapStore) Images(c string) ([]string, bool) { u, ok := m[c]; return u, ok }
func (m mapStore) SetImages(c string, urls []string) { m[c] = urls }

func TestLookup_FallsBackToCatalog(t *testing.T) {
	s := NewService(&failingSearcher{})
	urls, fallback := s.Lookup(context.Background(), "gym", 400, 300)
	assert.True(t, fallback)
	require.Len(t, urls, catalogSize)
	assert.Equal(t, "https://picsum.photos/seed/sitegen-fitness-1/400/300", urls[0])

	urls, fallback = NewService(nil).Lookup(context.Background(), "", 10, 10)
	assert.True(t, fallback)
	assert.NotEmpty(t, urls)
}

func TestLookup_UsesCache(t *testing.T) {
	c := cache.NewRedisCache(nil)
	defer c.Close()
	searcher := &countingSearcher{}
	s := NewService(searcher, WithCache(c, "t:", time.Minute))

	for i := 0; i < 3; i++ {
		urls, fallback := s.Lookup(context.Background(), "bakery", 800, 600)
		assert.False(t, fallback)
		assert.Equal(t, []string{"https://img.test/bakery.jpg"}, urls)
	}
	assert.Equal(t, 1, searcher.calls)
}

func TestFill_ReplacesOnlyUnusableSources(t *testing.T) {
	root := tree.New("hero", tree.TypeSection).Append(
		func() *tree.Node {
			n := tree.New("hero-image", tree.TypeImage)
			n.Props["src"] = tree.Str("/img/hero.png")
			return n
		}(),
		func() *tree.Node {
			n := tree.New("kept", tree.TypeImage)
			n.Props["src"] = tree.Str("https://cdn.test/real.jpg")
			return n
		}(),
		func() *tree.Node {
			n := tree.New("banner", tree.TypeContainer)
			n.Props["backgroundImage"] = tree.Str("url('https://placehold.co/600x400')")
			return n
		}(),
	)

	store := mapStore{}
	s := NewService(&failingSearcher{})
	filled := s.Fill(context.Background(), store, "hero", "fitness", root)

	assert.Equal(t, 2, filled)
	src := root.Children[0].Props.StringOr("src", "")
	assert.True(t, strings.HasPrefix(src, "https://picsum.photos/seed/sitegen-fitness-"), src)
	assert.Equal(t, "fitness hero", root.Children[0].Props.StringOr("alt", ""))
	assert.Equal(t, "https://cdn.test/real.jpg", root.Children[1].Props.StringOr("src", ""))
	assert.True(t, strings.HasPrefix(root.Children[2].Props.StringOr("backgroundImage", ""), "url(https://picsum.photos/"))
	assert.Contains(t, store, "fitness")
}

func TestFill_ReusesRequestCatalog(t *testing.T) {
	searcher := &countingSearcher{}
	s := NewService(searcher)
	store := mapStore{}

	for _, section := range []string{"features", "gallery"} {
		root := tree.New(section, tree.TypeSection).Append(tree.New("", tree.TypeImage))
		assert.Equal(t, 1, s.Fill(context.Background(), store, section, "bakery", root))
	}
	assert.Equal(t, 1, searcher.calls)
}
