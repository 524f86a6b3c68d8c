package device

import (
	"fmt"
	"sort"

	"spikegen/internal/transfer"
)

const (
	ModelClampedLinear = "cd_poisson_generator"
	ModelGaussianBump  = "rbf_poisson_generator"
)

var modelRegistry = map[string]transfer.Kind{
	ModelClampedLinear: transfer.KindClampedLinear,
	ModelGaussianBump:  transfer.KindGaussianBump,
}

var modelAliases = map[string]string{
	"clamped_linear": ModelClampedLinear,
	"cd":             ModelClampedLinear,
	"gaussian_bump":  ModelGaussianBump,
	"rbf":            ModelGaussianBump,
}

// New builds a device for a registered model name or alias.
func New(model string) (*Device, error) {
	name, kind, err := ResolveModel(model)
	if err != nil {
		return nil, err
	}
	params, err := transfer.DefaultParams(kind)
	if err != nil {
		return nil, err
	}
	return newDevice(name, params), nil
}

// ResolveModel maps a model name or alias to its canonical name and kind.
func ResolveModel(model string) (string, transfer.Kind, error) {
	if canonical, ok := modelAliases[model]; ok {
		model = canonical
	}
	kind, ok := modelRegistry[model]
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return model, kind, nil
}

// Models lists canonical model names.
func Models() []string {
	names := make([]string, 0, len(modelRegistry))
	for name := range modelRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
