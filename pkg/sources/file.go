package sources

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/agoraflux/pkg/errors"
)

// descriptorFile is the on-disk layout of a sources file.
type descriptorFile struct {
	Sources []Descriptor `yaml:"sources"`
}

// LoadDescriptors reads source descriptors from a YAML file:
//
//	sources:
//	  - key: paris_budget
//	    name: Budget Paris Open Data
//	    url: https://opendata.paris.fr/...
//	    format: csv
//	    update_frequency: yearly
//	    data_type: budget
func LoadDescriptors(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var file descriptorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	for _, d := range file.Sources {
		if err := d.Validate(); err != nil {
			return nil, errors.WrapValidation(d.ID.String(), err)
		}
	}
	return file.Sources, nil
}

// MergeDescriptors overlays overrides on base by key. Unknown keys are appended.
func MergeDescriptors(base, overrides []Descriptor) []Descriptor {
	out := make([]Descriptor, len(base))
	copy(out, base)
	index := make(map[ID]int, len(out))
	for i, d := range out {
		index[d.ID] = i
	}
	for _, o := range overrides {
		if i, ok := index[o.ID]; ok {
			out[i] = o
			continue
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	return out
}
