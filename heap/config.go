// Package heap implements a tiered page allocator with lazy-refill pooling.
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package heap

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/pgheap/pgheap/cmn/cos"
	"github.com/pgheap/pgheap/hk"
)

// environment overrides (tests and tuning without code changes):
//
//	PGHEAP_MAX_POOLED      - global pool ceiling, pages
//	PGHEAP_AUTO_REFILL     - "true"/"false"
//	PGHEAP_MINMEM_FREE     - e.g. "1GiB"
//	PGHEAP_MINMEM_PCT_TOTAL, PGHEAP_MINMEM_PCT_FREE - percentages
const (
	envMaxPooled   = "PGHEAP_MAX_POOLED"
	envAutoRefill  = "PGHEAP_AUTO_REFILL"
	envMinFree     = "PGHEAP_MINMEM_FREE"
	envMinPctTotal = "PGHEAP_MINMEM_PCT_TOTAL"
	envMinPctFree  = "PGHEAP_MINMEM_PCT_FREE"
)

// Config is read once at construction and is immutable thereafter.
type Config struct {
	Name           string        `json:"name"`
	PageSize       int64         `json:"page_size"`
	Orders         []int         `json:"orders"`           // descending; default {4, 0}
	MaxPooledPages int           `json:"max_pooled_pages"` // global pool ceiling
	PoolLowWM      int           `json:"pool_low_wm"`
	AutoRefill     bool          `json:"auto_refill"`
	MinFree        uint64        `json:"min_free"`      // memory that must remain available
	MinPctTotal    int           `json:"min_pct_total"` // same, via percentage of total
	MinPctFree     int           `json:"min_pct_free"`  // ditto, as % of free at init time
	HkIval         time.Duration `json:"hk_ival"`

	// collaborators (nil selects the in-process defaults)
	Source  Source          `json:"-"`
	Flusher Flusher         `json:"-"`
	HK      *hk.Housekeeper `json:"-"`
}

func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = "pgheap"
	}
	if c.PageSize == 0 {
		c.PageSize = DfltPageSize
	}
	if !cos.IsPow2(c.PageSize) {
		return fmt.Errorf("heap: page size %d must be a power of two", c.PageSize)
	}
	if len(c.Orders) == 0 {
		c.Orders = DfltOrders
	}
	if !sort.SliceIsSorted(c.Orders, func(i, j int) bool { return c.Orders[i] > c.Orders[j] }) {
		return fmt.Errorf("heap: orders %v must be descending", c.Orders)
	}
	for _, o := range c.Orders {
		if o < 0 || o > maxPageOrder {
			return fmt.Errorf("heap: invalid order %d", o)
		}
	}
	if c.MaxPooledPages == 0 {
		c.MaxPooledPages = DfltMaxPooledPages
	}
	if c.PoolLowWM == 0 {
		c.PoolLowWM = DfltPoolLowWM
	}
	if c.PoolLowWM < 0 {
		return fmt.Errorf("heap: invalid pool low watermark %d", c.PoolLowWM)
	}
	if c.Source == nil {
		c.Source = newMemSource(c.PageSize)
	}
	if c.Flusher == nil {
		c.Flusher = nopFlusher{}
	}
	return nil
}

// env applies environment overrides on top of defaults and Config{...}
// hard-codings.
func (c *Config) env() error {
	if a := os.Getenv(envMaxPooled); a != "" {
		v, err := strconv.Atoi(a)
		if err != nil || v <= 0 {
			return fmt.Errorf("heap: cannot parse %s %q", envMaxPooled, a)
		}
		c.MaxPooledPages = v
	}
	if a := os.Getenv(envAutoRefill); a != "" {
		v, err := strconv.ParseBool(a)
		if err != nil {
			return fmt.Errorf("heap: cannot parse %s %q", envAutoRefill, a)
		}
		c.AutoRefill = v
	}
	if a := os.Getenv(envMinFree); a != "" {
		v, err := cos.ParseSize(a)
		if err != nil {
			return fmt.Errorf("heap: cannot parse %s %q", envMinFree, a)
		}
		c.MinFree = uint64(v)
	}
	for _, pct := range []struct {
		name string
		dst  *int
	}{
		{envMinPctTotal, &c.MinPctTotal},
		{envMinPctFree, &c.MinPctFree},
	} {
		a := os.Getenv(pct.name)
		if a == "" {
			continue
		}
		v, err := strconv.Atoi(a)
		if err != nil || v < 0 || v > 100 {
			return fmt.Errorf("heap: invalid %s %q", pct.name, a)
		}
		*pct.dst = v
	}
	return nil
}

// LoadConfig reads a Config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "heap: read config")
	}
	c := &Config{}
	if err := jsoniter.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "heap: parse config %q", path)
	}
	return c, nil
}
