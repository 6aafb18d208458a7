// Package profanity detects and masks words from a configurable list in user-written text
// such as forum posts and mentor reviews.
package profanity

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/crna-fit/internal/logger"
)

const mask = "*"

// builtinWords is used when the configured source cannot be loaded and nothing is cached.
var builtinWords = []string{
	"ass",
	"asshole",
	"bastard",
	"bitch",
	"crap",
	"damn",
	"dick",
	"fuck",
	"piss",
	"shit",
	"slut",
	"whore",
}

type Filter struct {
	source WordSource
	cache  Cache
	logger *zap.Logger

	// mu guards the pattern compiled for the word list identified by key.
	mu      sync.Mutex
	key     string
	pattern *regexp.Regexp
}

// New builds a filter. A nil cache means no caching; a nil source means the built-in list.
func New(source WordSource, cache Cache, log *zap.Logger) *Filter {
	if source == nil {
		source = StaticSource(builtinWords)
	}
	return &Filter{
		source: source,
		cache:  cache,
		logger: logger.OrNop(log),
	}
}

// Words returns the active list, loading it through the cache. It is never empty.
func (f *Filter) Words(ctx context.Context) []string {
	if f.cache != nil {
		words, ok, err := f.cache.Get(ctx)
		if err != nil {
			f.logger.Warn("reading profanity cache failed", zap.Error(err))
		} else if ok && len(words) > 0 {
			return words
		}
	}

	words, err := f.source.Words(ctx)
	if err != nil {
		f.logger.Warn("loading profanity word list failed, using built-in list", zap.Error(err))
		return builtinWords
	}
	if len(words) == 0 {
		f.logger.Warn("profanity word list is empty, using built-in list")
		return builtinWords
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, words); err != nil {
			f.logger.Warn("writing profanity cache failed", zap.Error(err))
		}
	}

	f.logger.Debug("profanity word list loaded", zap.Int("words", len(words)))
	return words
}

// Find returns the distinct listed words found in text, lowercased, in order of appearance.
func (f *Filter) Find(ctx context.Context, text string) []string {
	return find(f.matcher(ctx), text)
}

func (f *Filter) Contains(ctx context.Context, text string) bool {
	re := f.matcher(ctx)
	return re != nil && re.MatchString(text)
}

// Clean replaces every listed word with asterisks of the same length.
func (f *Filter) Clean(ctx context.Context, text string) string {
	return clean(f.matcher(ctx), text)
}

// Check is Find and Clean against a single load of the word list.
func (f *Filter) Check(ctx context.Context, text string) ([]string, string) {
	re := f.matcher(ctx)
	return find(re, text), clean(re, text)
}

// matcher returns the pattern for the current word list, compiling it only when the list
// changed since the last call.
func (f *Filter) matcher(ctx context.Context) *regexp.Regexp {
	words := f.Words(ctx)
	key := strings.Join(words, "\n")

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pattern != nil && f.key == key {
		return f.pattern
	}
	f.key = key
	f.pattern = compile(words)
	return f.pattern
}

func find(re *regexp.Regexp, text string) []string {
	if re == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var found []string
	for _, m := range re.FindAllString(text, -1) {
		w := strings.ToLower(m)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		found = append(found, w)
	}
	return found
}

func clean(re *regexp.Regexp, text string) string {
	if re == nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Repeat(mask, utf8.RuneCountInString(m))
	})
}

// compile matches any of words as a whole word, case-insensitively. Longer words come
// first so that alternation prefers "asshole" over "ass".
func compile(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return nil
	}

	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
