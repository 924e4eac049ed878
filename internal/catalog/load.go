package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// #region errors

var (
	// ErrConfig marks a bundle that cannot be used at all: unparsable or missing required arrays.
	ErrConfig = errors.New("bundle config error")
	// ErrContentSanity marks structural content problems such as duplicate ids or inverted ranges.
	ErrContentSanity = errors.New("bundle content sanity")
	// ErrContentReference marks dangling id references inside effects, tags or followup pools.
	ErrContentReference = errors.New("bundle content reference")
)

// #endregion errors

// #region format

// Format selects the bundle decoder.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a decoder from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return FormatAuto
}

// #endregion format

// #region load

var bundleValidate = validator.New()

// Load reads, decodes and structurally checks a bundle file.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}
	b, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", path, err)
	}
	return b, nil
}

// Parse decodes a bundle and runs Check. Markdown code fences around the
// document are tolerated. FormatAuto treats input starting with '{' as JSON
// and anything else as YAML.
func Parse(data []byte, format Format) (*Bundle, error) {
	data = stripFence(data)
	if format == FormatAuto {
		if bytes.HasPrefix(data, []byte("{")) {
			format = FormatJSON
		} else {
			format = FormatYAML
		}
	}

	var b Bundle
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("%w: invalid json: %v", ErrConfig, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("%w: invalid yaml: %v", ErrConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrConfig, format)
	}

	if err := Check(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Check verifies the bundle has every required top-level field and that
// tagged field constraints hold. Failures wrap ErrConfig.
func Check(b *Bundle) error {
	err := bundleValidate.Struct(b)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrConfig, strings.Join(msgs, "; "))
}

func stripFence(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte("```")) {
		return data
	}
	// drop the opening fence line (with optional language) and the closing fence
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[i+1:]
	} else {
		data = data[3:]
	}
	data = bytes.TrimSpace(data)
	data = bytes.TrimSuffix(data, []byte("```"))
	return bytes.TrimSpace(data)
}

// #endregion load
