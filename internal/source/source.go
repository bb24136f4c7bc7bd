// Package source reads batches of party documents from JSON or YAML input.
package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/partyload/internal/party"
)

// Format is an input encoding.
type Format string

// Supported input formats.
const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Stdin is the path that reads documents from standard input.
const Stdin = "-"

// ParseFormat validates a configured format name. Empty means detect from the
// file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", eris.Errorf("source: unknown format %q", s)
	}
}

// DetectFormat picks a format from the file extension, defaulting to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile reads every document in path. A path of "-" reads stdin.
func ReadFile(ctx context.Context, path string, format Format) ([]party.Document, error) {
	if format == FormatAuto {
		format = DetectFormat(path)
	}

	var r io.Reader = os.Stdin
	if path != Stdin {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "source: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	docs, err := Read(ctx, r, format)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", path)
	}
	zap.L().Debug("documents read",
		zap.String("component", "source"),
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

// Read decodes every document in r.
func Read(ctx context.Context, r io.Reader, format Format) ([]party.Document, error) {
	switch format {
	case FormatYAML:
		return DecodeYAML(r)
	case FormatJSON, FormatAuto:
		ch, errCh := DecodeJSONArray[map[string]any](ctx, r)
		var docs []party.Document
		for doc := range ch {
			docs = append(docs, doc)
		}
		if err := <-errCh; err != nil {
			return nil, err
		}
		return docs, nil
	default:
		return nil, eris.Errorf("source: unknown format %q", format)
	}
}
