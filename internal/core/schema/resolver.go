package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ritsnep/HimalytixNew-sub007/internal/apperrors"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
)

// Resolution sources.
const (
	SourceStored  = "stored"
	SourceMinimal = "minimal"
)

// fallback keys tried after the voucher type's own code and name.
var fallbackKeys = []string{"general", "standard"}

// Resolution is the outcome of resolving a voucher type's schema. When Found
// is false Schema holds the minimal schema merged with the config's UDFs.
type Resolution struct {
	Schema   Schema   `json:"schema"`
	Warnings []string `json:"warnings"`
	Tried    []string `json:"tried"`
	Source   string   `json:"source"`
	Found    bool     `json:"found"`
}

type cacheKey struct {
	configID string
	version  int
}

// Resolver turns a VoucherTypeConfig into a Schema. Results are cached per
// config id and version; Purge drops everything.
type Resolver struct {
	files fs.FS
	cache *lru.Cache[cacheKey, Resolution]
}

// NewResolver creates a resolver reading fallback files from files, which may be nil.
func NewResolver(files fs.FS, cacheSize int) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[cacheKey, Resolution](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}
	return &Resolver{files: files, cache: cache}, nil
}

// Purge clears the cache so the next Resolve re-reads definitions.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// Resolve finds the schema for cfg. It prefers the stored definition, then
// YAML files keyed by code, slugified name, "general" and "standard".
// Malformed sources are skipped with a warning, but a source that parses into
// an invalid schema, such as one with a duplicate field name, fails the
// resolution with a configuration error. Results affected by a cancelled
// context or a failed read are not cached.
func (r *Resolver) Resolve(ctx context.Context, cfg *domain.VoucherTypeConfig) (Resolution, error) {
	if cfg == nil {
		return Resolution{}, errors.New("voucher type config is required")
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	key := cacheKey{configID: cfg.ID, version: cfg.Version}
	if cfg.ID != "" {
		if res, ok := r.cache.Get(key); ok {
			return res, nil
		}
	}

	res := Resolution{Warnings: []string{}, Tried: []string{}}
	base, found, cacheable, err := r.lookup(ctx, cfg, &res)
	if err != nil {
		return Resolution{}, err
	}
	if found {
		var added []string
		base, added, err = WithCoreFields(base)
		if err != nil {
			return Resolution{}, fmt.Errorf("%s: %w", res.Source, err)
		}
		if len(added) > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("schema from %s lacks %s, using minimal definitions", res.Source, strings.Join(added, ", ")))
		}
	} else {
		base = Minimal()
		res.Source = SourceMinimal
		res.Warnings = append(res.Warnings, fmt.Sprintf("no schema found for voucher type %q, using minimal schema", cfg.Code))
	}
	res.Found = found

	merged, err := Merge(base, cfg.HeaderUDFs, cfg.LineUDFs)
	if err != nil {
		return Resolution{}, err
	}
	res.Schema = merged

	if cfg.ID != "" && cacheable {
		r.cache.Add(key, res)
	}
	return res, nil
}

// lookup walks the candidate sources. cacheable is false when a read failed
// for a reason other than the file being absent.
func (r *Resolver) lookup(ctx context.Context, cfg *domain.VoucherTypeConfig, res *Resolution) (s Schema, found, cacheable bool, err error) {
	cacheable = true
	if strings.TrimSpace(cfg.SchemaDefinition) != "" {
		res.Tried = append(res.Tried, SourceStored)
		s, err := Parse([]byte(cfg.SchemaDefinition))
		if err == nil {
			res.Source = SourceStored
			return s, true, cacheable, nil
		}
		if errors.Is(err, apperrors.ErrConfiguration) {
			return Schema{}, false, false, fmt.Errorf("stored schema for %q: %w", cfg.Code, err)
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("stored schema for %q is unusable: %v", cfg.Code, err))
	}

	if r.files == nil {
		return Schema{}, false, cacheable, nil
	}
	for _, key := range candidateKeys(cfg) {
		for _, ext := range []string{".yaml", ".yml"} {
			if err := ctx.Err(); err != nil {
				return Schema{}, false, false, err
			}
			path := key + ext
			res.Tried = append(res.Tried, path)
			raw, err := fs.ReadFile(r.files, path)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					cacheable = false
					res.Warnings = append(res.Warnings, fmt.Sprintf("failed to read %s: %v", path, err))
				}
				continue
			}
			s, err := Parse(raw)
			if err != nil {
				if errors.Is(err, apperrors.ErrConfiguration) {
					return Schema{}, false, false, fmt.Errorf("schema file %s: %w", path, err)
				}
				res.Warnings = append(res.Warnings, fmt.Sprintf("schema file %s is unusable: %v", path, err))
				continue
			}
			res.Source = path
			return s, true, cacheable, nil
		}
	}
	return Schema{}, false, cacheable, nil
}

func candidateKeys(cfg *domain.VoucherTypeConfig) []string {
	keys := make([]string, 0, 4)
	seen := map[string]bool{}
	for _, k := range append([]string{cfg.Code, Slugify(cfg.Name)}, fallbackKeys...) {
		if k == "" || seen[k] || !fs.ValidPath(k) {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// Slugify lowercases name and joins its alphanumeric runs with hyphens,
// e.g. "Sales Invoice" becomes "sales-invoice".
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
