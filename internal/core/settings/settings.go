// Package settings holds the shared scraper configuration the external
// crawler engine reads at launch time. The engine insists on ambient
// settings, so per-platform overrides are applied through a transaction that
// snapshots the prior values and restores them exactly afterwards.
package settings

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Config is the request-supplied crawler configuration. Optional booleans are
// pointers so an omitted field falls back to its documented default instead
// of the zero value.
type Config struct {
	LoginType          string `json:"login_type,omitempty"`
	CrawlerType        string `json:"crawler_type,omitempty"`
	SortType           string `json:"sort_type,omitempty"`
	Headless           *bool  `json:"headless,omitempty"`
	AntiDetection      *bool  `json:"anti_detection_mode,omitempty"`
	ProxyEnabled       *bool  `json:"proxy_enabled,omitempty"`
	ProxyPoolCount     int    `json:"proxy_pool_count,omitempty"`
	MaxItems           int    `json:"max_items,omitempty"`
	MaxCommentsPerItem int    `json:"max_comments_per_item,omitempty"`
	CommentsEnabled    *bool  `json:"comments_enabled,omitempty"`
	SubCommentsEnabled *bool  `json:"sub_comments_enabled,omitempty"`
	MaxSleepSec        int    `json:"max_sleep_seconds,omitempty"`
	Cookies            string `json:"cookies,omitempty"`
}

// Values is the full set of tracked scraper settings.
type Values struct {
	Platform           string
	Keywords           string
	LoginType          string
	CrawlerType        string
	SortType           string
	Headless           bool
	AntiDetection      bool
	ProxyEnabled       bool
	ProxyPoolCount     int
	MaxItems           int
	MaxCommentsPerItem int
	CommentsEnabled    bool
	SubCommentsEnabled bool
	MaxSleepSec        int
}

// Defaults returns the documented fallback values.
func Defaults() Values {
	return Values{
		LoginType:          "qrcode",
		CrawlerType:        "search",
		SortType:           "general",
		Headless:           false,
		AntiDetection:      true,
		ProxyEnabled:       false,
		ProxyPoolCount:     2,
		MaxItems:           15,
		MaxCommentsPerItem: 10,
		CommentsEnabled:    true,
		SubCommentsEnabled: false,
		MaxSleepSec:        2,
	}
}

// Store guards the shared settings. Only one transaction is ever open at a
// time under the single-flight scheduler, but the token check keeps the
// contract honest should that change.
type Store struct {
	mu      sync.RWMutex
	values  Values
	openTok string
}

func NewStore() *Store {
	return &Store{values: Defaults()}
}

// Current returns a copy of the effective settings.
func (s *Store) Current() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

// Reset writes the documented defaults back, discarding whatever is set.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = Defaults()
	s.openTok = ""
}

// Transaction scopes one platform's settings override. Restore consumes the
// snapshot exactly once; a stale transaction (superseded by a newer Begin)
// restores nothing.
type Transaction struct {
	store *Store
	snap  Values
	token string
	once  sync.Once
}

// Begin snapshots the current settings and applies the override derived from
// platform, keywords and the request config.
func (s *Store) Begin(platform string, keywords []string, cfg Config) *Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.values
	s.values = effective(platform, keywords, cfg)
	tok := uuid.New().String()
	s.openTok = tok

	return &Transaction{store: s, snap: snap, token: tok}
}

// Restore writes every captured field back. Safe to call more than once and
// from deferred error paths.
func (tx *Transaction) Restore() {
	if tx == nil {
		return
	}
	tx.once.Do(func() {
		tx.store.restore(tx.token, tx.snap)
	})
}

func (s *Store) restore(token string, snap Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openTok != token {
		return
	}
	s.openTok = ""
	s.values = snap
}

// effective merges the request config over the documented defaults.
func effective(platform string, keywords []string, cfg Config) Values {
	v := Defaults()
	v.Platform = platform
	v.Keywords = strings.Join(keywords, ",")

	if cfg.LoginType != "" {
		v.LoginType = cfg.LoginType
	}
	if cfg.CrawlerType != "" {
		v.CrawlerType = cfg.CrawlerType
	}
	if cfg.SortType != "" {
		v.SortType = cfg.SortType
	}
	if cfg.Headless != nil {
		v.Headless = *cfg.Headless
	}
	if cfg.AntiDetection != nil {
		v.AntiDetection = *cfg.AntiDetection
	}
	if cfg.ProxyEnabled != nil {
		v.ProxyEnabled = *cfg.ProxyEnabled
	}
	if cfg.ProxyPoolCount > 0 {
		v.ProxyPoolCount = cfg.ProxyPoolCount
	}
	if cfg.MaxItems > 0 {
		v.MaxItems = cfg.MaxItems
	}
	if cfg.MaxCommentsPerItem > 0 {
		v.MaxCommentsPerItem = cfg.MaxCommentsPerItem
	}
	if cfg.CommentsEnabled != nil {
		v.CommentsEnabled = *cfg.CommentsEnabled
	}
	if cfg.SubCommentsEnabled != nil {
		v.SubCommentsEnabled = *cfg.SubCommentsEnabled
	}
	if cfg.MaxSleepSec > 0 {
		v.MaxSleepSec = cfg.MaxSleepSec
	}
	return v
}

type ctxKey int

const crawlerTypeKey ctxKey = 0

// WithCrawlerType threads the effective crawler type through the run's
// context rather than an ambient variable.
func WithCrawlerType(ctx context.Context, crawlerType string) context.Context {
	return context.WithValue(ctx, crawlerTypeKey, crawlerType)
}

// CrawlerTypeFrom reads the crawler type from ctx, defaulting to "search".
func CrawlerTypeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(crawlerTypeKey).(string); ok && v != "" {
		return v
	}
	return Defaults().CrawlerType
}
