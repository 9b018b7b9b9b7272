package repository

import (
	"context"
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hakchin/ppst/internal/models"
)

// DefaultContactsDir is where inquiries are written unless configured otherwise.
const DefaultContactsDir = "data/contacts"

const inquiryFileExt = ".json"

//go:embed contact_inquiry.schema.json
var inquirySchemaJSON string

var inquirySchema = jsonschema.MustCompileString("contact_inquiry.schema.json", inquirySchemaJSON)

// InquirySchema returns the compiled schema every stored document must satisfy.
func InquirySchema() *jsonschema.Schema {
	return inquirySchema
}

// FileContactRepository stores one pretty-printed JSON file per inquiry, named <id>.json.
type FileContactRepository struct {
	dir string
}

// NewFileContactRepository constructs a repository rooted at dir. The directory is created
// on first save or by EnsureDir.
func NewFileContactRepository(dir string) *FileContactRepository {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultContactsDir
	}
	return &FileContactRepository{dir: dir}
}

// Dir returns the storage directory.
func (r *FileContactRepository) Dir() string {
	return r.dir
}

// EnsureDir creates the storage directory if it is missing.
func (r *FileContactRepository) EnsureDir() error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: r.dir, Err: err}
	}
	return nil
}

// Probe reports whether the storage directory exists without creating it.
func (r *FileContactRepository) Probe() error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return &StorageError{Op: "stat", Path: r.dir, Err: err}
	}
	if !info.IsDir() {
		return &StorageError{Op: "stat", Path: r.dir, Err: errors.New("not a directory")}
	}
	return nil
}

// Save writes the inquiry to <dir>/<id>.json and returns the file path. The document is
// written to a temporary file, synced, then linked into place, so readers only ever see
// complete files and an existing file is never replaced.
func (r *FileContactRepository) Save(ctx context.Context, inquiry models.ContactInquiry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validFileID(inquiry.ID) {
		return "", &SerializationError{Op: "encode", Err: ErrInvalidInquiryID}
	}

	payload, err := MarshalPretty(inquiry)
	if err != nil {
		return "", &SerializationError{Op: "encode", Path: inquiry.ID, Err: err}
	}

	if err := r.EnsureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(r.dir, inquiry.ID+inquiryFileExt)
	tmp, err := os.CreateTemp(r.dir, "."+inquiry.ID+"-*.tmp")
	if err != nil {
		return "", &StorageError{Op: "create", Path: r.dir, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return "", &StorageError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", &StorageError{Op: "sync", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &StorageError{Op: "close", Path: tmpName, Err: err}
	}

	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", &StorageError{Op: "link", Path: path, Err: ErrInquiryExists}
		}
		return "", &StorageError{Op: "link", Path: path, Err: err}
	}

	if err := syncDir(r.dir); err != nil {
		return "", &StorageError{Op: "sync", Path: r.dir, Err: err}
	}

	return path, nil
}

// List returns every stored inquiry ordered by file name, which is chronological because
// IDs are timestamps. A missing directory yields an empty list. Any unreadable or invalid
// file fails the whole call.
func (r *FileContactRepository) List(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Document{}, nil
		}
		return nil, &StorageError{Op: "read_dir", Path: r.dir, Err: err}
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), inquiryFileExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(r.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &StorageError{Op: "read", Path: path, Err: err}
		}

		doc, err := decodeDocument(data)
		if err != nil {
			return nil, &SerializationError{Op: "decode", Path: path, Err: err}
		}
		normalizeSubmittedAt(doc)

		if err := inquirySchema.Validate(map[string]any(doc)); err != nil {
			return nil, &SerializationError{Op: "validate", Path: path, Err: err}
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func validFileID(id string) bool {
	if id == "" || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, `/\`+string(os.PathSeparator))
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
