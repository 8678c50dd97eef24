package providers

import (
	"fmt"
	"sort"

	"chatgate/internal/core"
)

// Params is the resolved parameter bag handed to a client constructor.
type Params map[string]any

// String returns the named parameter as a string, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Float returns the named parameter as a float64 pointer, or nil when absent.
func (p Params) Float(key string) *float64 {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case *float64:
		return n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

// Int returns the named parameter as an int, or 0 when absent.
func (p Params) Int(key string) int {
	v, ok := p[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// ResolveParams applies a registry row's mapping to a request's model and
// generation config. Mapping keys are walked in lexical order, constants
// first taking whatever the row says, fields read from the config; empty
// results are then backfilled from the row's defaults and finally from the
// generation config for the parameters it covers.
func ResolveParams(spec ProviderSpec, cfg core.ModelConfig, gen core.GenerationConfig) (Params, error) {
	params := make(Params, len(spec.ParamMapping)+2)

	keys := make([]string, 0, len(spec.ParamMapping))
	for k := range spec.ParamMapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		src := spec.ParamMapping[key]
		switch {
		case src.Const != nil:
			params[key] = src.Const
		case src.Field != "":
			v, err := configField(cfg, src.Field)
			if err != nil {
				return nil, err
			}
			if v != nil {
				params[key] = v
			}
		}
	}

	for key, v := range spec.Defaults {
		if _, ok := params[key]; !ok {
			params[key] = v
		}
	}

	// Generation config supplies sampling parameters the model config
	// left unset.
	if params.Float("temperature") == nil && gen.Temperature != nil {
		params["temperature"] = *gen.Temperature
	}
	if gen.MaxTokens > 0 {
		params["max_tokens"] = gen.MaxTokens
	}

	return params, nil
}

func configField(cfg core.ModelConfig, name string) (any, error) {
	switch name {
	case FieldModel:
		return nonEmpty(cfg.Model), nil
	case FieldAPIKey:
		return nonEmpty(cfg.APIKey), nil
	case FieldBaseURL:
		return nonEmpty(cfg.BaseURL), nil
	case FieldProxyURL:
		return nonEmpty(cfg.ProxyURL), nil
	case FieldAPIVersion:
		return nonEmpty(cfg.APIVersion), nil
	case FieldTemperature:
		if cfg.Temperature == nil {
			return nil, nil
		}
		return *cfg.Temperature, nil
	default:
		return nil, fmt.Errorf("providers: unknown config field %q", name)
	}
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// missingFields returns the registry row's required fields that are still
// empty on the config.
func missingFields(spec ProviderSpec, cfg core.ModelConfig) []string {
	var missing []string
	for _, name := range spec.RequiredFields {
		v, err := configField(cfg, name)
		if err != nil || v == nil {
			missing = append(missing, name)
		}
	}
	return missing
}
