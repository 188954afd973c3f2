// File: config/frommap.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// FromMap decodes an untyped map (e.g. a fragment of an embedder's own
// config tree, or a YAML/JSON blob already unmarshaled to
// map[string]any elsewhere) into Options. Grounded on qtalk-go's use
// of mapstructure for loosely-typed peer configuration, adopted here
// since the corpus otherwise has no config-file format of its own.
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// FromMap decodes raw into Options, starting from Default so any keys
// raw omits keep their default values.
func FromMap(raw map[string]any) (Options, error) {
	o := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &o,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Options{}, fmt.Errorf("config: new decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("config: decode: %w", err)
	}
	return o, nil
}
