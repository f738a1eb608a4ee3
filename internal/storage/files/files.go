// Package files persists pipeline datasets as YAML documents on disk, one
// file per dataset under a directory per project.
package files

import (
	"context"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/logging"
	"github.com/agentstation/agoraflux/pkg/storage"
)

// Store is a storage.Sink writing YAML files under a root directory.
type Store struct {
	root string
}

var _ storage.Sink = (*Store)(nil)

// New creates a file store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.NewValidationError("dir", dir, "cannot be empty")
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	return &Store{root: dir}, nil
}

// Path returns the file a dataset is written to.
func (s *Store) Path(groupingKey, name string) string {
	return filepath.Join(s.root, groupingKey, name+".yaml")
}

// Save writes the dataset, replacing any previous version.
func (s *Store) Save(ctx context.Context, ds storage.Dataset) (storage.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return storage.Receipt{}, err
	}
	if err := ds.Validate(); err != nil {
		return storage.Receipt{}, err
	}

	path := s.Path(ds.GroupingKey, ds.Name)
	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	data, err := yaml.Marshal(ds)
	if err != nil {
		return storage.Receipt{}, errors.WrapParse("yaml", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return storage.Receipt{}, errors.WrapIO("create", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return storage.Receipt{}, errors.WrapIO("write", path, err)
	}

	logging.FromContext(ctx).Debug().
		Str("path", path).
		Bool("created", created).
		Msg("Persisted dataset to file")
	return storage.Receipt{
		GroupingKey:   ds.GroupingKey,
		Name:          ds.Name,
		RecordsStored: len(ds.Records),
		Created:       created,
	}, nil
}

// Load reads a dataset back.
func (s *Store) Load(groupingKey, name string) (*storage.Dataset, error) {
	path := s.Path(groupingKey, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("dataset", groupingKey+"/"+name)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	var ds storage.Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &ds, nil
}
