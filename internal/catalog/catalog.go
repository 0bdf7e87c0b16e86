package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

var (
	// ErrUnknownSku is returned when a base SKU is not part of the price book.
	ErrUnknownSku = errors.New("unknown sku")
	// ErrUnknownTierForSku is returned when a SKU has no price for the requested tier.
	ErrUnknownTierForSku = errors.New("unknown tier for sku")
)

//go:embed wholesale.yaml
var defaultBook []byte

// Entry is one price book row.
type Entry struct {
	SKU          string                   `json:"sku"`
	Description  string                   `json:"description"`
	PricesByTier map[tier.ID]money.Display `json:"prices"`
}

// Catalog is the immutable SKU price book together with the tier thresholds.
// It is loaded once at startup and shared read-only.
type Catalog struct {
	entries map[string]Entry
	tiers   tier.Table
}

type fileBook struct {
	Tiers map[string]fileTier `yaml:"tiers"`
	SKUs  map[string]fileSKU  `yaml:"skus"`
}

type fileTier struct {
	MinOrderValue      string `yaml:"min_order_value"`
	MinQuantityPerItem int    `yaml:"min_quantity_per_item"`
	MinItems           int    `yaml:"min_items"`
	MaxItems           int    `yaml:"max_items"`
	MinLifetimeSpend   string `yaml:"min_lifetime_spend"`
}

type fileSKU struct {
	Description string            `yaml:"description"`
	Prices      map[string]string `yaml:"prices"`
}

// Default returns the embedded price book.
func Default() (*Catalog, error) {
	return Parse(defaultBook)
}

// LoadFile reads a price book from disk. An empty path selects the embedded book.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price book: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load decodes a YAML price book.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read price book: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML price book bytes. Unparseable amounts fail with money.ErrInvalidAmount.
func Parse(data []byte) (*Catalog, error) {
	var book fileBook
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("decode price book: %w", err)
	}
	if len(book.SKUs) == 0 {
		return nil, errors.New("price book has no skus")
	}

	var err error
	tiers := tier.Table{}
	for key, ft := range book.Tiers {
		id, ok := tier.Parse(key)
		if !ok {
			return nil, fmt.Errorf("price book: unknown tier %q", key)
		}
		req := tier.Requirement{
			MinQuantityPerItem: ft.MinQuantityPerItem,
			MinItems:           ft.MinItems,
			MaxItems:           ft.MaxItems,
		}
		if req.MinOrderValue, err = optionalAmount(ft.MinOrderValue); err != nil {
			return nil, fmt.Errorf("price book %s min_order_value: %w", key, err)
		}
		if req.MinLifetimeSpend, err = optionalAmount(ft.MinLifetimeSpend); err != nil {
			return nil, fmt.Errorf("price book %s min_lifetime_spend: %w", key, err)
		}
		tiers[id] = req
	}
	for _, id := range tier.Ordered {
		if _, ok := tiers[id]; !ok {
			return nil, fmt.Errorf("price book: missing requirements for %s", id)
		}
	}

	entries := make(map[string]Entry, len(book.SKUs))
	for sku, row := range book.SKUs {
		code := strings.TrimSpace(sku)
		if code == "" || strings.Contains(code, " ") {
			return nil, fmt.Errorf("price book: invalid sku %q", sku)
		}
		prices := make(map[tier.ID]money.Display, len(row.Prices))
		for key, raw := range row.Prices {
			id, ok := tier.Parse(key)
			if !ok {
				return nil, fmt.Errorf("price book %s: unknown tier %q", code, key)
			}
			price, err := money.ParseDisplay(raw)
			if err != nil {
				return nil, fmt.Errorf("price book %s %s: %w", code, id, err)
			}
			prices[id] = price
		}
		entries[code] = Entry{SKU: code, Description: row.Description, PricesByTier: prices}
	}
	return &Catalog{entries: entries, tiers: tiers}, nil
}

func optionalAmount(raw string) (money.Minor, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	d, err := money.ParseDisplay(raw)
	if err != nil {
		return 0, err
	}
	return d.Minor(), nil
}

// Lookup returns the entry for a base SKU.
func (c *Catalog) Lookup(baseSKU string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[baseSKU]
	return e, ok
}

// Has reports whether the base SKU is part of the price book.
func (c *Catalog) Has(baseSKU string) bool {
	_, ok := c.Lookup(baseSKU)
	return ok
}

// PriceFor returns the tier unit price of a base SKU.
func (c *Catalog) PriceFor(baseSKU string, id tier.ID) (money.Display, error) {
	e, ok := c.Lookup(baseSKU)
	if !ok {
		return money.Display{}, fmt.Errorf("%w: %s", ErrUnknownSku, baseSKU)
	}
	price, ok := e.PricesByTier[id]
	if !ok {
		return money.Display{}, fmt.Errorf("%w: %s %s", ErrUnknownTierForSku, baseSKU, id)
	}
	return price, nil
}

// Tiers returns a copy of the tier requirement table.
func (c *Catalog) Tiers() tier.Table {
	out := make(tier.Table, len(c.tiers))
	for id, req := range c.tiers {
		out[id] = req
	}
	return out
}

// Entries lists the price book sorted by SKU.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// BaseSKU strips a trailing variant token: the code before the first space, or
// the whole trimmed string when there is none. "MT52 XL" -> "MT52".
func BaseSKU(raw string) string {
	trimmed := strings.TrimSpace(raw)
	base, _, _ := strings.Cut(trimmed, " ")
	return base
}
