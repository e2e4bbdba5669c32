package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Defaults holds operator-tunable application defaults. The file is
// hot-reloaded, so values must always be read through the holder.
type Defaults struct {
	DocumentTemplate string `mapstructure:"documentTemplate"`
	ProPeriodDays    int    `mapstructure:"proPeriodDays"`
	InvoiceFormat    string `mapstructure:"invoiceFormat"`
	InvoicePrefix    string `mapstructure:"invoicePrefix"`
}

func DefaultDefaults() Defaults {
	return Defaults{
		DocumentTemplate: "standard",
		ProPeriodDays:    30,
		InvoiceFormat:    "{prefix}{year}-{seq}",
		InvoicePrefix:    "INV-",
	}
}

// DefaultsHolder exposes the current defaults snapshot.
type DefaultsHolder struct {
	current atomic.Value // holds Defaults
}

func NewDefaultsHolder(cfg Config) (*DefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("facture")
	v.SetConfigType("yml")
	if path := strings.TrimSpace(cfg.DefaultsPath); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("/etc/facture")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FACTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultDefaults()
		v.SetDefault("defaults.documentTemplate", defaults.DocumentTemplate)
		v.SetDefault("defaults.proPeriodDays", defaults.ProPeriodDays)
		v.SetDefault("defaults.invoiceFormat", defaults.InvoiceFormat)
		v.SetDefault("defaults.invoicePrefix", defaults.InvoicePrefix)
	}

	var d Defaults
	if err := v.UnmarshalKey("defaults", &d); err != nil {
		return nil, err
	}
	if err := validateDefaults(d); err != nil {
		return nil, err
	}

	holder := &DefaultsHolder{}
	holder.current.Store(d)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Defaults
		if err := v.UnmarshalKey("defaults", &updated); err != nil {
			log.Printf("[defaults-config] reload failed: %v", err)
			return
		}
		if err := validateDefaults(updated); err != nil {
			log.Printf("[defaults-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

// NewStaticDefaults returns a holder pinned to the given snapshot, with no
// file watching. Used by tests.
func NewStaticDefaults(d Defaults) *DefaultsHolder {
	holder := &DefaultsHolder{}
	holder.current.Store(d)
	return holder
}

// Current returns the active defaults snapshot.
func (h *DefaultsHolder) Current() Defaults {
	d, ok := h.current.Load().(Defaults)
	if !ok {
		return DefaultDefaults()
	}
	return normalizeDefaults(d)
}

func validateDefaults(d Defaults) error {
	if d.ProPeriodDays < 0 {
		return errors.New("proPeriodDays must not be negative")
	}
	return nil
}

func normalizeDefaults(d Defaults) Defaults {
	fallback := DefaultDefaults()
	if strings.TrimSpace(d.DocumentTemplate) == "" {
		d.DocumentTemplate = fallback.DocumentTemplate
	}
	if d.ProPeriodDays == 0 {
		d.ProPeriodDays = fallback.ProPeriodDays
	}
	if strings.TrimSpace(d.InvoiceFormat) == "" {
		d.InvoiceFormat = fallback.InvoiceFormat
	}
	return d
}
