package results

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/photon-entanglement/internal/config"
	"github.com/oshokin/photon-entanglement/internal/domain/run"
)

// Repository defines persistence operations for run records.
type Repository interface {
	Save(ctx context.Context, rec *run.Record) (string, error)
	Load(ctx context.Context, path string) (*run.Record, error)
	List(ctx context.Context) ([]string, error)
}

// FileRepository persists run records as JSON files in a directory.
type FileRepository struct {
	// dir is the directory holding one JSON file per record.
	dir string
	// mu serializes access to the directory.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the record file does not exist.
	ErrNotFound = errors.New("record not found")
	// errRecordIsNotSet is returned when Save receives nil.
	errRecordIsNotSet = errors.New("record is not set")
)

// dirPermissions restricts the results directory to the owner and group.
const dirPermissions = 0o750

// NewFileRepository creates a repository rooted at dir.
func NewFileRepository(dir string) *FileRepository {
	if dir == "" {
		dir = config.DefaultResultsDir
	}

	return &FileRepository{
		dir: filepath.Clean(dir),
	}
}

// Dir returns the results directory.
func (r *FileRepository) Dir() string {
	return r.dir
}

// Save writes the record and returns the path of the created file.
func (r *FileRepository) Save(_ context.Context, rec *run.Record) (string, error) {
	if rec == nil {
		return "", errRecordIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	protoRecord, err := toProto(rec)
	if err != nil {
		return "", err
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(protoRecord)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	if err = os.MkdirAll(r.dir, dirPermissions); err != nil {
		return "", fmt.Errorf("create results directory: %w", err)
	}

	path := filepath.Join(r.dir, rec.Filename())
	if err = os.WriteFile(path, data, config.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("write record file: %w", err)
	}

	return path, nil
}

// Load reads a record from path.
func (r *FileRepository) Load(_ context.Context, path string) (*run.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read record file: %w", err)
	}

	var protoRecord structpb.Struct
	if err = protojson.Unmarshal(contents, &protoRecord); err != nil {
		return nil, fmt.Errorf("decode record file: %w", err)
	}

	return fromProto(&protoRecord)
}

// List returns the record files in the directory, sorted by name.
// A missing directory yields an empty list.
func (r *FileRepository) List(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(r.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	sort.Strings(paths)

	return paths, nil
}
