package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ekisa-team/yoloexport/internal/mapsafe"
)

type paramKind int

const (
	kindInt paramKind = iota
	kindFloat
	kindBool
	kindString
)

type paramRule struct {
	kind  paramKind
	check func(v any) error
}

func positiveInt(v any) error {
	if v.(int) <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

// paramRules is every export argument the driver knows how to forward.
var paramRules = map[string]paramRule{
	"imgsz":     {kind: kindInt, check: positiveInt},
	"batch":     {kind: kindInt, check: positiveInt},
	"opset":     {kind: kindInt, check: positiveInt},
	"half":      {kind: kindBool},
	"int8":      {kind: kindBool},
	"dynamic":   {kind: kindBool},
	"simplify":  {kind: kindBool},
	"nms":       {kind: kindBool},
	"optimize":  {kind: kindBool},
	"keras":     {kind: kindBool},
	"device":    {kind: kindString},
	"data":      {kind: kindString},
	"name":      {kind: kindString},
	"workspace": {kind: kindFloat, check: func(v any) error {
		if v.(float64) <= 0 {
			return errors.New("must be positive")
		}
		return nil
	}},
	"fraction": {kind: kindFloat, check: func(v any) error {
		if f := v.(float64); f <= 0 || f > 1 {
			return errors.New("must be in (0, 1]")
		}
		return nil
	}},
}

// normalizeParams validates params against spec and returns them with canonical Go types.
func normalizeParams(spec *Spec, params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for key := range params {
		rule, known := paramRules[key]
		if !known || !spec.Accepts(key) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedParameter, key)
		}

		var (
			v   any
			err error
		)
		switch rule.kind {
		case kindInt:
			v, err = mapsafe.Lookup[int](params, key)
		case kindFloat:
			v, err = mapsafe.Lookup[float64](params, key)
		case kindBool:
			v, err = mapsafe.Lookup[bool](params, key)
		case kindString:
			v, err = mapsafe.Lookup[string](params, key)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
		if rule.check != nil {
			if err := rule.check(v); err != nil {
				return nil, fmt.Errorf("%w: %q %w", ErrInvalidParameter, key, err)
			}
		}
		out[key] = v
	}
	return out, nil
}

// buildArgs builds toolkit command-line arguments. Parameters are emitted in key order.
func buildArgs(modelPath string, format Format, params map[string]any) []string {
	args := []string{
		"export",
		"model=" + modelPath,
		"format=" + string(format),
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, k+"="+formatValue(params[k]))
	}
	return args
}

func formatValue(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

var savedAsPattern = regexp.MustCompile(`saved as '([^']+)'`)

// parseArtifactPath extracts the last artifact path the toolkit reported.
// Relative paths are resolved against the toolkit's working directory.
func parseArtifactPath(output string) (string, bool) {
	matches := savedAsPattern.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return "", false
	}

	p := strings.TrimSpace(matches[len(matches)-1][1])
	if p == "" {
		return "", false
	}
	if !filepath.IsAbs(p) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return filepath.Clean(p), true
}
