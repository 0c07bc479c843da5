package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"wikistats/internal/providers"
	"wikistats/internal/snapshot/interfaces"
	"wikistats/internal/structures"

	json "github.com/goccy/go-json"
)

// Writer persists generated data files (aggregated stats, previews and
// zstd-compressed raw series) into the snapshot directory. All writes go
// through a tmp file and a rename so readers never see partial files.
type Writer struct {
	dir        string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewWriter(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) (*Writer, error) {
	if err := os.MkdirAll(conf.Snapshot.Dir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &Writer{
		dir:        conf.Snapshot.Dir,
		compressor: compressor,
		logger:     logger,
	}, nil
}

// WriteJSON stores v as <name>.json.
func (w *Writer) WriteJSON(name string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	filename := name + ".json"
	if err := w.writeAtomic(filename, data); err != nil {
		return "", err
	}
	return filename, nil
}

// WriteCompressed stores v as zstd-compressed JSON under
// <name>.json.zst.
func (w *Writer) WriteCompressed(name string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	compressed, err := w.compressor.Compress(data)
	if err != nil {
		return "", err
	}
	filename := name + ".json.zst"
	if err := w.writeAtomic(filename, compressed); err != nil {
		return "", err
	}
	return filename, nil
}

// ReadCompressed loads and decodes a file written by WriteCompressed.
func (w *Writer) ReadCompressed(filename string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(w.dir, filename))
	if err != nil {
		return err
	}
	decompressed, err := w.compressor.Decompress(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(decompressed, v)
}

func (w *Writer) Close() {
	w.compressor.Close()
}

func (w *Writer) writeAtomic(filename string, data []byte) error {
	path := filepath.Join(w.dir, filename)
	tmp := path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
