package config

import (
	"encoding/base64"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// SecretSource tags where a secret value was resolved from.
type SecretSource string

const (
	SourceBase64 SecretSource = "base64"
	SourceInline SecretSource = "inline"
	SourceFile   SecretSource = "file"
	SourceNone   SecretSource = "none"
)

// ErrNoSecret is returned when no secret source is configured at all.
var ErrNoSecret = eris.New("config: no database_url, database_url_b64 or database_url_file set")

// ResolveDSN resolves the warehouse DSN from its configured sources,
// exactly once, before the pipeline starts. Precedence: explicit base64,
// then inline (auto-decoding values that look base64-encoded), then file.
func (c StoreConfig) ResolveDSN() (string, SecretSource, error) {
	return resolveSecret(c.DatabaseURL, c.DatabaseURLB64, c.DatabaseURLFile)
}

func resolveSecret(inline, b64, file string) (string, SecretSource, error) {
	if b64 != "" {
		dec, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
		if err != nil {
			return "", SourceNone, eris.Wrap(err, "config: decode base64 secret")
		}
		return strings.TrimSpace(string(dec)), SourceBase64, nil
	}

	if inline != "" {
		// Values pasted into env vars are sometimes base64-wrapped without
		// using the dedicated key. A real DSN never decodes cleanly, so a
		// successful decode of a plausible-looking value wins.
		if !strings.Contains(inline, "://") {
			if dec, err := base64.StdEncoding.DecodeString(strings.TrimSpace(inline)); err == nil && utf8.Valid(dec) {
				return strings.TrimSpace(string(dec)), SourceInline, nil
			}
		}
		return inline, SourceInline, nil
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", SourceNone, eris.Wrapf(err, "config: read secret file %s", file)
		}
		return strings.TrimSpace(string(data)), SourceFile, nil
	}

	return "", SourceNone, ErrNoSecret
}
