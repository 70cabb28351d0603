// Package search provides the company directory: a small in-memory full-text
// index over listed companies used to pick targets and peers by name.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/seenimoa/ratiobench/pkg/utils"
)

// DefaultLimit caps Search results when no limit is given.
const DefaultLimit = 10

// Directory looks companies up by ticker and searches them by ticker, name
// or sector.
type Directory struct {
	index     bleve.Index
	companies []Company // sorted by name
	byTicker  map[string]Company
}

// companyDoc is the indexed form of a Company. Symbol is the lower-cased
// exchange symbol without suffix so prefix queries match "hdfc" to
// HDFCBANK.NS.
type companyDoc struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// NewDirectory indexes companies in memory. Tickers are normalised; a
// duplicate ticker keeps its first entry.
func NewDirectory(companies []Company) (*Directory, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create company index: %w", err)
	}

	d := &Directory{
		index:    index,
		byTicker: make(map[string]Company, len(companies)),
	}

	batch := index.NewBatch()
	for _, c := range companies {
		c.Ticker = utils.NormalizeTicker(c.Ticker)
		if c.Ticker == "" {
			continue
		}
		if _, dup := d.byTicker[c.Ticker]; dup {
			continue
		}
		d.byTicker[c.Ticker] = c
		d.companies = append(d.companies, c)

		base, _ := utils.SplitExchange(c.Ticker)
		doc := companyDoc{Symbol: strings.ToLower(base), Name: c.Name, Sector: c.Sector}
		if err := batch.Index(c.Ticker, doc); err != nil {
			return nil, fmt.Errorf("index %s: %w", c.Ticker, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("execute index batch: %w", err)
	}

	sort.SliceStable(d.companies, func(i, j int) bool {
		return d.companies[i].Name < d.companies[j].Name
	})
	return d, nil
}

// Default returns a directory over the built-in NSE catalogue.
func Default() (*Directory, error) {
	return NewDirectory(NSECompanies)
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	companyMapping := bleve.NewDocumentMapping()

	// Symbols are matched whole, not tokenised ("bajaj-auto", "m&m").
	symbolField := bleve.NewTextFieldMapping()
	symbolField.Analyzer = keyword.Name
	companyMapping.AddFieldMappingsAt("symbol", symbolField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	companyMapping.AddFieldMappingsAt("name", textField)
	companyMapping.AddFieldMappingsAt("sector", textField)

	indexMapping.DefaultMapping = companyMapping
	return indexMapping
}

// Search returns companies matching q, best match first. An exact symbol
// outranks a symbol prefix, which outranks name and sector matches. An empty
// query returns the first limit companies by name.
func (d *Directory) Search(q string, limit int) ([]Company, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q = strings.TrimSpace(q)
	if q == "" {
		return d.head(limit), nil
	}
	base, _ := utils.SplitExchange(strings.ToUpper(strings.TrimPrefix(q, "$")))
	symbol := strings.ToLower(base)
	lower := strings.ToLower(q)

	exact := bleve.NewTermQuery(symbol)
	exact.SetField("symbol")
	exact.SetBoost(10.0)

	prefix := bleve.NewPrefixQuery(symbol)
	prefix.SetField("symbol")
	prefix.SetBoost(5.0)

	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(3.0)

	fuzzyName := bleve.NewMatchQuery(q)
	fuzzyName.SetField("name")
	fuzzyName.SetFuzziness(1)
	fuzzyName.SetBoost(1.0)

	sector := bleve.NewMatchQuery(q)
	sector.SetField("sector")
	sector.SetBoost(1.5)

	queries := []query.Query{exact, prefix, name, fuzzyName, sector}

	// Prefix on the last word so "hind" finds Hindalco and Hindustan.
	if words := strings.Fields(lower); len(words) > 0 {
		namePrefix := bleve.NewPrefixQuery(words[len(words)-1])
		namePrefix.SetField("name")
		namePrefix.SetBoost(2.0)
		queries = append(queries, namePrefix)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	res, err := d.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}

	out := make([]Company, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if c, ok := d.byTicker[hit.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Lookup returns the company listed under ticker. Aliases and missing
// exchange suffixes are resolved first.
func (d *Directory) Lookup(ticker string) (Company, bool) {
	c, ok := d.byTicker[utils.NormalizeTicker(ticker)]
	return c, ok
}

// Name returns the company name for ticker, or "" if unknown.
func (d *Directory) Name(ticker string) string {
	c, _ := d.Lookup(ticker)
	return c.Name
}

// All returns every company, sorted by name.
func (d *Directory) All() []Company {
	out := make([]Company, len(d.companies))
	copy(out, d.companies)
	return out
}

// SectorPeers returns the other companies in ticker's sector, sorted by
// name. It returns nil when ticker is not in the directory.
func (d *Directory) SectorPeers(ticker string) []Company {
	target, ok := d.Lookup(ticker)
	if !ok {
		return nil
	}
	var peers []Company
	for _, c := range d.companies {
		if c.Sector == target.Sector && c.Ticker != target.Ticker {
			peers = append(peers, c)
		}
	}
	return peers
}

// Len returns the number of companies in the directory.
func (d *Directory) Len() int { return len(d.companies) }

// Close releases the index.
func (d *Directory) Close() error {
	return d.index.Close()
}

func (d *Directory) head(limit int) []Company {
	if limit > len(d.companies) {
		limit = len(d.companies)
	}
	out := make([]Company, limit)
	copy(out, d.companies[:limit])
	return out
}
