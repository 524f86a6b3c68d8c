package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"spikegen/internal/dict"
	"spikegen/pkg/spikegen"
)

func loadRunRequestFromConfig(path string) (spikegen.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return spikegen.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return spikegen.RunRequest{}, err
	}
	return runRequestFromMap(raw)
}

func runRequestFromMap(raw map[string]any) (spikegen.RunRequest, error) {
	var req spikegen.RunRequest
	if v, ok := dict.AsString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := dict.AsString(raw["model"]); ok {
		req.Model = v
	}
	if v, ok := dict.AsFloat64(raw["resolution_ms"]); ok {
		req.ResolutionMS = v
	}
	if v, ok := dict.AsInt64(raw["slice_steps"]); ok {
		req.SliceSteps = v
	}
	if v, ok := dict.AsInt64(raw["max_delay_steps"]); ok {
		req.MaxDelaySteps = v
	}
	if v, ok := dict.AsFloat64(raw["duration_ms"]); ok {
		req.DurationMS = v
	}
	if v, ok := dict.AsInt64(raw["seed"]); ok {
		if v < 0 {
			return spikegen.RunRequest{}, fmt.Errorf("seed must be >= 0: %d", v)
		}
		req.Seed = uint64(v)
	}
	if v, ok := dict.AsInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := dict.AsInt(raw["devices"]); ok {
		req.Devices = v
	}
	if v, ok := dict.AsInt(raw["targets"]); ok {
		req.Targets = v
	}
	if v, ok := dict.AsStrings(raw["record"]); ok {
		req.Record = v
	}
	if v, ok := dict.AsInt64(raw["record_interval"]); ok {
		req.RecordInterval = v
	}
	if v, ok := dict.AsFloat64(raw["bin_ms"]); ok {
		req.BinMS = v
	}
	if rawParams, present := raw["params"]; present {
		params, ok := dict.AsDict(rawParams)
		if !ok {
			return spikegen.RunRequest{}, fmt.Errorf("%w: params must be an object", dict.ErrWrongType)
		}
		req.Params = params
	}
	if rawStim, present := raw["stimulus"]; present {
		stim, ok := dict.AsDict(rawStim)
		if !ok {
			return spikegen.RunRequest{}, fmt.Errorf("%w: stimulus must be an object", dict.ErrWrongType)
		}
		s, err := stimulusFromMap(stim)
		if err != nil {
			return spikegen.RunRequest{}, err
		}
		req.Stimulus = s
	}
	return req, nil
}

func stimulusFromMap(raw dict.Dict) (spikegen.Stimulus, error) {
	var s spikegen.Stimulus
	if v, present := raw["times_ms"]; present {
		times, ok := dict.AsFloat64s(v)
		if !ok {
			return spikegen.Stimulus{}, fmt.Errorf("%w: stimulus.times_ms", dict.ErrWrongType)
		}
		s.TimesMS = times
	}
	if v, present := raw["amplitudes"]; present {
		amps, ok := dict.AsFloat64s(v)
		if !ok {
			return spikegen.Stimulus{}, fmt.Errorf("%w: stimulus.amplitudes", dict.ErrWrongType)
		}
		s.Amplitudes = amps
	}
	if v, ok := dict.AsFloat64(raw["weight"]); ok {
		s.Weight = v
	}
	if v, ok := dict.AsInt64(raw["delay_steps"]); ok {
		s.DelaySteps = v
	}
	return s, nil
}

func overrideFromFlags(req *spikegen.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "model":
			req.Model = v.(string)
		case "resolution-ms":
			req.ResolutionMS = v.(float64)
		case "slice-steps":
			req.SliceSteps = v.(int64)
		case "max-delay-steps":
			req.MaxDelaySteps = v.(int64)
		case "duration-ms":
			req.DurationMS = v.(float64)
		case "seed":
			req.Seed = v.(uint64)
		case "workers":
			req.Workers = v.(int)
		case "devices":
			req.Devices = v.(int)
		case "targets":
			req.Targets = v.(int)
		case "record":
			req.Record = splitList(v.(string))
		case "record-interval":
			req.RecordInterval = v.(int64)
		case "bin-ms":
			req.BinMS = v.(float64)
		case "param":
			if req.Params == nil {
				req.Params = map[string]any{}
			}
			for key, value := range v.(paramFlag) {
				req.Params[key] = value
			}
		case "stim-times":
			times, err := parseFloats(v.(string))
			if err != nil {
				return fmt.Errorf("stim-times: %w", err)
			}
			req.Stimulus.TimesMS = times
		case "stim-amps":
			amps, err := parseFloats(v.(string))
			if err != nil {
				return fmt.Errorf("stim-amps: %w", err)
			}
			req.Stimulus.Amplitudes = amps
		case "stim-weight":
			req.Stimulus.Weight = v.(float64)
		case "stim-delay":
			req.Stimulus.DelaySteps = v.(int64)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}

// paramFlag collects repeated -param key=value flags.
type paramFlag map[string]any

func (p paramFlag) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range dict.Keys(p) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p[k]))
	}
	return strings.Join(parts, ",")
}

func (p paramFlag) Set(value string) error {
	key, raw, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("param %s: %w", key, err)
	}
	p[key] = f
	return nil
}

func parseFloats(raw string) ([]float64, error) {
	parts := splitList(raw)
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
