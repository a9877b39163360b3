// Package keywords loads per-client keyword override files from object
// storage mounted as a filesystem.
package keywords

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ems-codex/brand-sentiment/internal/model"
)

// Bucket supplies the two optional keyword lists for a client scope.
// Absence of the underlying object is not an error; implementations return
// an empty list. Errors mean a genuine read or parse failure.
type Bucket interface {
	ContextKeywords(ctx context.Context, scope model.ClientScope) ([]string, error)
	NegativeKeywords(ctx context.Context, scope model.ClientScope) ([]string, error)
}

// FSBucket reads keyword files from an afero filesystem whose layout mirrors
// the object-store buckets: one top-level directory per logical bucket.
type FSBucket struct {
	fs              afero.Fs
	contextBucket   string
	negativesBucket string
}

// NewFSBucket creates a bucket over fsys with the given context and
// negatives bucket names.
func NewFSBucket(fsys afero.Fs, contextBucket, negativesBucket string) *FSBucket {
	return &FSBucket{fs: fsys, contextBucket: contextBucket, negativesBucket: negativesBucket}
}

// ContextKeywords loads <bucket>/brand-sentiment/<dataset>_keywords.txt, one
// keyword per line. The scope's KeywordBucket overrides the default context
// bucket when set. A missing file yields an empty list.
func (b *FSBucket) ContextKeywords(_ context.Context, scope model.ClientScope) ([]string, error) {
	dataset := scope.Dataset
	bucket := b.contextBucket
	if scope.KeywordBucket != "" {
		bucket = scope.KeywordBucket
	}
	key := fmt.Sprintf("%s/brand-sentiment/%s_keywords.txt", bucket, dataset)

	f, err := b.fs.Open(key)
	if err != nil {
		if isNotExist(err) {
			zap.L().Info("keywords: no context file, continuing without it",
				zap.String("dataset", dataset), zap.String("key", key))
			return nil, nil
		}
		return nil, eris.Wrapf(err, "keywords: open %s", key)
	}
	defer f.Close()

	var kws []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if kw := strings.ToLower(strings.TrimSpace(sc.Text())); kw != "" {
			kws = append(kws, kw)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "keywords: read %s", key)
	}

	zap.L().Info("keywords: loaded context keywords",
		zap.String("dataset", dataset), zap.Int("count", len(kws)))
	return kws, nil
}

// NegativeKeywords loads <bucket>/sentiment/development/<dataset>/negatives.json.gz,
// a gzipped JSON document that is either a bare array of keywords or an
// object with a "keywords" array. Negatives always live in the shared
// versioned bucket regardless of the scope's context-bucket override. A
// missing file yields an empty list.
func (b *FSBucket) NegativeKeywords(_ context.Context, scope model.ClientScope) ([]string, error) {
	dataset := scope.Dataset
	key := fmt.Sprintf("%s/sentiment/development/%s/negatives.json.gz", b.negativesBucket, dataset)

	f, err := b.fs.Open(key)
	if err != nil {
		if isNotExist(err) {
			zap.L().Info("keywords: no negatives file, proceeding without negatives",
				zap.String("dataset", dataset), zap.String("key", key))
			return nil, nil
		}
		return nil, eris.Wrapf(err, "keywords: open %s", key)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, eris.Wrapf(err, "keywords: gunzip %s", key)
	}
	defer gz.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(gz).Decode(&raw); err != nil {
		return nil, eris.Wrapf(err, "keywords: decode %s", key)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var doc struct {
			Keywords []string `json:"keywords"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, eris.Wrapf(err, "keywords: %s is neither a list nor a keywords object", key)
		}
		list = doc.Keywords
	}

	var negs []string
	for _, kw := range list {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			negs = append(negs, kw)
		}
	}

	zap.L().Info("keywords: loaded negative keywords",
		zap.String("dataset", dataset), zap.Int("count", len(negs)))
	return negs, nil
}

func isNotExist(err error) bool {
	return eris.Is(err, fs.ErrNotExist)
}
