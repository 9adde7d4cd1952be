package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingConfig tunes the price cache, expiry defaults and the seeded catalog.
type PricingConfig struct {
	CacheTTL            time.Duration    `mapstructure:"cacheTTL"`
	ExtendPostDays      int              `mapstructure:"extendPostDays"`
	DefaultDurationDays int              `mapstructure:"defaultDurationDays"`
	Catalog             []CatalogProduct `mapstructure:"catalog"`
}

type CatalogProduct struct {
	Code        string   `mapstructure:"code"`
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Type        string   `mapstructure:"type"`
	PriceCents  int64    `mapstructure:"priceCents"`
	SortOrder   int      `mapstructure:"sortOrder"`
	Features    []string `mapstructure:"features"`
	Active      *bool    `mapstructure:"active"`
}

func (p CatalogProduct) IsActive() bool {
	return p.Active == nil || *p.Active
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		CacheTTL:            60 * time.Second,
		ExtendPostDays:      7,
		DefaultDurationDays: 15,
		Catalog: []CatalogProduct{
			{Code: "basic", Name: "Basic", Type: "plan", PriceCents: 0, SortOrder: 1,
				Description: "15-day listing in the job feed",
				Features:    []string{"15-day listing", "Standard placement"}},
			{Code: "standard", Name: "Standard", Type: "plan", PriceCents: 2000, SortOrder: 2,
				Description: "30-day listing with company logo",
				Features:    []string{"30-day listing", "Company logo", "Email support"}},
			{Code: "featured", Name: "Featured", Type: "plan", PriceCents: 5000, SortOrder: 3,
				Description: "30-day featured listing pinned above standard posts",
				Features:    []string{"30-day listing", "Featured badge", "Pinned placement"}},
			{Code: "unlimited", Name: "Unlimited", Type: "plan", PriceCents: 15000, SortOrder: 4,
				Description: "90-day listing with every promotion included",
				Features:    []string{"90-day listing", "Featured badge", "Priority support"}},
			{Code: "highlighted", Name: "Highlighted", Type: "addon", PriceCents: 1000, SortOrder: 10,
				Description: "Highlight the posting in the feed"},
			{Code: "urgent", Name: "Urgent", Type: "addon", PriceCents: 1500, SortOrder: 11,
				Description: "Mark the posting as urgently hiring"},
			{Code: "top-of-search", Name: "Top of search", Type: "addon", PriceCents: 2500, SortOrder: 12,
				Description: "Keep the posting at the top of search results"},
			{Code: "social-media-promotion", Name: "Social media promotion", Type: "addon", PriceCents: 3000, SortOrder: 13,
				Description: "Promote the posting on partner social channels"},
			{Code: "extend-post", Name: "Extend post", Type: "addon", PriceCents: 1000, SortOrder: 14,
				Description: "Add 7 days to the listing"},
		},
	}
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

// NewStaticPricingConfig returns a holder that never reloads.
func NewStaticPricingConfig(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}

func NewPricingConfigHolder(log *zap.Logger) (*PricingConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("pricing.config")

	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/jobboard")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("JOBBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Info("pricing config file not found, using defaults")
		return NewStaticPricingConfig(DefaultPricingConfig()), nil
	}

	cfg, err := decodePricingConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodePricingConfig(v)
		if err != nil {
			log.Warn("pricing config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("pricing config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *PricingConfigHolder) Get() PricingConfig {
	if h == nil {
		return DefaultPricingConfig()
	}
	cfg, ok := h.current.Load().(PricingConfig)
	if !ok {
		return DefaultPricingConfig()
	}
	return cfg
}

func decodePricingConfig(v *viper.Viper) (PricingConfig, error) {
	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return PricingConfig{}, err
	}
	cfg = cfg.withDefaults()
	if err := validatePricingConfig(cfg); err != nil {
		return PricingConfig{}, err
	}
	return cfg, nil
}

func (c PricingConfig) withDefaults() PricingConfig {
	defaults := DefaultPricingConfig()
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	if c.ExtendPostDays <= 0 {
		c.ExtendPostDays = defaults.ExtendPostDays
	}
	if c.DefaultDurationDays <= 0 {
		c.DefaultDurationDays = defaults.DefaultDurationDays
	}
	if len(c.Catalog) == 0 {
		c.Catalog = defaults.Catalog
	}
	return c
}

func validatePricingConfig(cfg PricingConfig) error {
	seen := make(map[string]struct{}, len(cfg.Catalog))
	for i, item := range cfg.Catalog {
		code := strings.TrimSpace(item.Code)
		if code == "" {
			return fmt.Errorf("pricing.catalog[%d].code cannot be empty", i)
		}
		if item.Type != "plan" && item.Type != "addon" {
			return fmt.Errorf("pricing.catalog[%d].type must be plan or addon", i)
		}
		if item.PriceCents < 0 {
			return fmt.Errorf("pricing.catalog[%d].priceCents cannot be negative", i)
		}
		key := item.Type + ":" + code
		if _, ok := seen[key]; ok {
			return errors.New("pricing.catalog has duplicate entry " + key)
		}
		seen[key] = struct{}{}
	}
	return nil
}
