package profanity

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// WordSource supplies the word list.
type WordSource interface {
	Words(ctx context.Context) ([]string, error)
}

// StaticSource serves a fixed list, e.g. words inlined in the config file.
type StaticSource []string

func (s StaticSource) Words(context.Context) ([]string, error) {
	return normalize(s), nil
}

// FileSource reads one word per line. Blank lines and lines starting with # are skipped.
type FileSource struct {
	Path string
}

func (s FileSource) Words(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	return normalize(words), nil
}

// normalize lowercases, trims and de-duplicates words, keeping the first occurrence order.
func normalize(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
