package images

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"sitegen/internal/cache"
	"sitegen/internal/tree"
)

// Cache is the subset of the cache layer used for lookups
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Store holds the per-request image catalog, keyed by category
type Store interface {
	Images(category string) ([]string, bool)
	SetImages(category string, urls []string)
}

// Service resolves image URLs through the cache, the lookup service and
// finally the built-in catalog. A lookup never comes back empty.
type Service struct {
	searcher Searcher
	cache    Cache
	prefix   string
	ttl      time.Duration
	perQuery int
	log      *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithCache stores lookup results under prefix for ttl
func WithCache(c Cache, prefix string, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache, s.prefix, s.ttl = c, prefix, ttl
	}
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// NewService builds a Service. searcher may be nil, in which case only the
// built-in catalog is used.
func NewService(searcher Searcher, opts ...Option) *Service {
	s := &Service{searcher: searcher, perQuery: catalogSize, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns URLs for query. fallback reports whether they came from
// the built-in catalog.
func (s *Service) Lookup(ctx context.Context, query string, width, height int) (urls []string, fallback bool) {
	category := Category(query)
	key := cache.ImageSearchKey(s.prefix, query, width, height)

	if s.cache != nil {
		if err := s.cache.GetJSON(ctx, key, &urls); err == nil && len(urls) > 0 {
			return urls, false
		}
	}

	if s.searcher != nil {
		found, err := s.searcher.Search(ctx, query, width, height, s.perQuery)
		switch {
		case err != nil:
			s.log.Warn("image lookup failed, using catalog", zap.String("query", query), zap.Error(err))
		case len(found) == 0:
			s.log.Debug("image lookup returned nothing", zap.String("query", query))
		default:
			if s.cache != nil {
				if err := s.cache.SetJSON(ctx, key, found, s.ttl); err != nil {
					s.log.Debug("image cache write failed", zap.Error(err))
				}
			}
			return found, false
		}
	}
	return Fallback(category, width, height), true
}

var cssURL = regexp.MustCompile(`url\(\s*['"]?([^'")]*)['"]?\s*\)`)

// Fill gives every image slot in root that lacks a usable source a URL.
// Catalogs are cached in store per category so later sections and variants
// of the same request reuse them. It returns the number of slots filled.
func (s *Service) Fill(ctx context.Context, store Store, section, industry string, root *tree.Node) int {
	filled := 0
	offset := sectionOffset(section)

	tree.Walk(root, func(n *tree.Node) bool {
		isImage := n.Type == tree.TypeImage
		bg, hasBg := n.Props.String("backgroundImage")
		if hasBg {
			m := cssURL.FindStringSubmatch(bg)
			hasBg = m == nil || !usable(m[1])
		}
		if isImage {
			src, _ := n.Props.String("src")
			isImage = !usable(src)
		}
		if !isImage && !hasBg {
			return true
		}

		category := slotCategory(n, section, industry)
		urls := s.catalog(ctx, store, category, industry, section)
		u := urls[(offset+filled)%len(urls)]
		filled++

		if isImage {
			n.Props["src"] = tree.Str(u)
			if alt, _ := n.Props.String("alt"); strings.TrimSpace(alt) == "" {
				n.Props["alt"] = tree.Str(strings.TrimSpace(industry + " " + section))
			}
		} else {
			n.Props["backgroundImage"] = tree.Str("url(" + u + ")")
		}
		return true
	})
	return filled
}

func (s *Service) catalog(ctx context.Context, store Store, category, industry, section string) []string {
	if store != nil {
		if urls, ok := store.Images(category); ok && len(urls) > 0 {
			return urls
		}
	}

	width, height := 1200, 800
	switch {
	case category == "people":
		width, height = 400, 400
	case section == "hero":
		width, height = 1600, 900
	}

	query := category
	if industry != "" && industry != "general" && category != Category(industry) {
		query = industry + " " + category
	} else if industry != "" && industry != "general" {
		query = industry
	}

	urls, _ := s.Lookup(ctx, query, width, height)
	if store != nil {
		store.SetImages(category, urls)
	}
	return urls
}

// slotCategory prefers what the node says about itself, then the industry
func slotCategory(n *tree.Node, section, industry string) string {
	own := n.ID + " " + n.Props.StringOr("alt", "") + " " + n.Props.StringOr("originalType", "")
	if section == "testimonials" || section == "team" {
		own += " " + section
	}
	if c := Category(own); c != DefaultCategory {
		return c
	}
	return Category(industry + " " + section)
}

func sectionOffset(section string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(section))
	return int(h.Sum32() % catalogSize)
}
