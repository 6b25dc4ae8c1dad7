package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/sevaops/bskdash/errors"
)

// Required flat files. The first three are UTF-8; the provision export comes
// out of a legacy Windows tool and is encoded as Windows-1252.
const (
	ServiceMasterFile = "service_master.csv"
	BSKMasterFile     = "bsk_master.csv"
	DEOMasterFile     = "deo_master.csv"
	ProvisionFile     = "provision.csv"
)

var requiredFiles = []string{
	ServiceMasterFile,
	BSKMasterFile,
	DEOMasterFile,
	ProvisionFile,
}

// FileBackend loads snapshots from delimited flat files under a resolved
// data directory. Loading is all-or-nothing: if any required file is absent
// the load fails and no partial data is returned.
type FileBackend struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewFileBackend creates a flat-file backend rooted at dir.
func NewFileBackend(dir string, logger *zap.SugaredLogger) *FileBackend {
	return &FileBackend{dir: dir, logger: logger}
}

// Name implements Backend.
func (b *FileBackend) Name() string { return "file" }

// Dir returns the resolved data directory this backend reads from.
func (b *FileBackend) Dir() string { return b.dir }

// Load implements Backend.
func (b *FileBackend) Load(ctx context.Context) (*Snapshot, error) {
	b.logger.Infow("Loading flat-file dataset", "dir", b.dir)

	// All-or-nothing: verify every required file before reading any.
	for _, name := range requiredFiles {
		path := filepath.Join(b.dir, name)
		if _, err := os.Stat(path); err != nil {
			b.logger.Errorw("Required data file not found",
				"file", name,
				"path", path)
			return nil, errors.Wrapf(err, "required file %s not found", name)
		}
	}

	services, err := b.readTable(ctx, ServiceMasterFile, nil)
	if err != nil {
		return nil, err
	}
	centers, err := b.readTable(ctx, BSKMasterFile, nil)
	if err != nil {
		return nil, err
	}
	agents, err := b.readTable(ctx, DEOMasterFile, nil)
	if err != nil {
		return nil, err
	}
	provisions, err := b.readTable(ctx, ProvisionFile, charmap.Windows1252.NewDecoder())
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Services:   make([]Service, 0, len(services)),
		Centers:    make([]TrainingCenter, 0, len(centers)),
		Agents:     make([]Agent, 0, len(agents)),
		Provisions: make([]Provision, 0, len(provisions)),
		LoadedAt:   time.Now(),
		Source:     b.Name(),
	}
	for _, row := range services {
		snap.Services = append(snap.Services, normalizeService(row))
	}
	for _, row := range centers {
		snap.Centers = append(snap.Centers, normalizeCenter(row))
	}
	for _, row := range agents {
		snap.Agents = append(snap.Agents, normalizeAgent(row))
	}
	for _, row := range provisions {
		snap.Provisions = append(snap.Provisions, normalizeProvision(row))
	}

	b.logger.Infow("Flat-file dataset loaded",
		"services", len(snap.Services),
		"bsks", len(snap.Centers),
		"deos", len(snap.Agents),
		"provisions", len(snap.Provisions))

	return snap, nil
}

// readTable reads one delimited file into header-keyed rows. A non-nil
// decoder transcodes the file to UTF-8 while reading. Short rows are padded;
// the normalizer turns padding into canonical empty values.
func (b *FileBackend) readTable(ctx context.Context, name string, decoder *encoding.Decoder) ([]map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(b.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer f.Close()

	var src io.Reader = f
	if decoder != nil {
		src = transform.NewReader(f, decoder)
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", name)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}

		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			} else {
				row[column] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
