// Package level stores generated terrains in a LevelDB database. Each
// terrain lives under its own name; a Sink stages one terrain in a batch and
// Commit writes it in a single atomic write.
package level

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/go-theft-craft/terraingen/internal/storage"
	"github.com/go-theft-craft/terraingen/pkg/terrain/heightfield"
	"github.com/go-theft-craft/terraingen/pkg/terrain/splat"
	"github.com/go-theft-craft/terraingen/pkg/terrain/vegetation"
)

const keyPrefix = "terrain/"

// Store wraps an open LevelDB database.
type Store struct {
	db  *leveldb.DB
	log *slog.Logger
}

// Open opens or creates the database at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func key(name, part string) []byte {
	return []byte(keyPrefix + name + "/" + part)
}

// Sink returns a sink that stages the terrain called name, which must not
// contain a slash. Nothing is visible until Commit.
func (s *Store) Sink(name string) *Sink {
	return &Sink{store: s, name: name, batch: new(leveldb.Batch)}
}

// Names lists the committed terrains in key order.
func (s *Store) Names() ([]string, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer it.Release()

	var names []string
	for it.Next() {
		k := strings.TrimPrefix(string(it.Key()), keyPrefix)
		if name, ok := strings.CutSuffix(k, "/meta"); ok {
			names = append(names, name)
		}
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterate terrains: %w", err)
	}
	return names, nil
}

// LoadHeights reads the heights of terrain name.
func (s *Store) LoadHeights(name string) (*heightfield.Heightfield, error) {
	var h storage.HeightsHeader
	if err := s.getJSON(key(name, "heights-header"), &h); err != nil {
		return nil, fmt.Errorf("load heights header: %w", err)
	}
	data, err := s.getCompressed(key(name, "heights"))
	if err != nil {
		return nil, fmt.Errorf("load heights: %w", err)
	}
	return storage.DecodeHeights(h, data)
}

// LoadSplatWeights reads the splat map of terrain name.
func (s *Store) LoadSplatWeights(name string) (*splat.Map, error) {
	data, err := s.getCompressed(key(name, "splat"))
	if err != nil {
		return nil, fmt.Errorf("load splat: %w", err)
	}
	var d storage.SplatData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse splat: %w", err)
	}
	return d.Map()
}

// LoadInstances reads the tree instances of terrain name.
func (s *Store) LoadInstances(name string) ([]vegetation.Instance, error) {
	data, err := s.getCompressed(key(name, "trees"))
	if err != nil {
		return nil, fmt.Errorf("load trees: %w", err)
	}
	var d storage.TreeData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse trees: %w", err)
	}
	return d.Instances, nil
}

// LoadMeta reads the metadata of terrain name.
func (s *Store) LoadMeta(name string) (*storage.Meta, error) {
	var m storage.Meta
	if err := s.getJSON(key(name, "meta"), &m); err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	return &m, nil
}

// Delete removes every key of terrain name.
func (s *Store) Delete(name string) error {
	batch := new(leveldb.Batch)
	it := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix+name+"/")), nil)
	for it.Next() {
		batch.Delete(bytes.Clone(it.Key()))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return fmt.Errorf("iterate terrain %s: %w", name, err)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("delete terrain %s: %w", name, err)
	}
	return nil
}

func (s *Store) get(k []byte) ([]byte, error) {
	data, err := s.db.Get(k, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	return data, err
}

func (s *Store) getJSON(k []byte, v any) error {
	data, err := s.get(k)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) getCompressed(k []byte) ([]byte, error) {
	data, err := s.get(k)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// Sink stages one terrain for a single batch write. It satisfies both
// pipeline sinks and is not safe for concurrent use.
type Sink struct {
	store *Store
	name  string
	batch *leveldb.Batch
}

// SetHeights stages the heights.
func (k *Sink) SetHeights(hf *heightfield.Heightfield) error {
	if hf == nil {
		return errors.New("set heights: nil heightfield")
	}
	h := storage.HeightsHeader{Width: hf.W, Height: hf.H, Format: storage.HeightsFormat}
	if err := k.putJSON("heights-header", &h); err != nil {
		return err
	}
	return k.putCompressed("heights", storage.EncodeHeights(hf))
}

// SetSplatWeights stages the splat map.
func (k *Sink) SetSplatWeights(m *splat.Map) error {
	if m == nil {
		return errors.New("set splat weights: nil map")
	}
	data, err := json.Marshal(storage.SplatDataFromMap(m))
	if err != nil {
		return fmt.Errorf("marshal splat: %w", err)
	}
	return k.putCompressed("splat", data)
}

// ReplaceInstances stages the full tree set, replacing any committed one.
func (k *Sink) ReplaceInstances(in []vegetation.Instance) error {
	d := storage.TreeData{Instances: in}
	if d.Instances == nil {
		d.Instances = []vegetation.Instance{}
	}
	data, err := json.Marshal(&d)
	if err != nil {
		return fmt.Errorf("marshal trees: %w", err)
	}
	return k.putCompressed("trees", data)
}

// SaveMeta stages the metadata.
func (k *Sink) SaveMeta(m *storage.Meta) error {
	return k.putJSON("meta", m)
}

// Commit writes everything staged so far in one batch and resets the sink.
func (k *Sink) Commit() error {
	n := k.batch.Len()
	if err := k.store.db.Write(k.batch, nil); err != nil {
		return fmt.Errorf("commit terrain %s: %w", k.name, err)
	}
	k.batch.Reset()
	k.store.log.Info("committed terrain", "name", k.name, "records", n)
	return nil
}

func (k *Sink) putJSON(part string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", part, err)
	}
	k.batch.Put(key(k.name, part), data)
	return nil
}

func (k *Sink) putCompressed(part string, data []byte) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("compress %s: %w", part, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	k.batch.Put(key(k.name, part), buf.Bytes())
	return nil
}
