package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/room-allotment/internal/config"
	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
)

// Repository defines persistence operations for the run checkpoint.
type Repository interface {
	Load(ctx context.Context) (*domain.RunSnapshot, error)
	Save(ctx context.Context, snapshot *domain.RunSnapshot) error
	Clear(ctx context.Context) error
}

// FileRepository persists the checkpoint to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the checkpoint file.
	path string
	// mu protects concurrent access to the checkpoint file.
	mu sync.Mutex
}

// ErrNotFound is returned when no checkpoint has been written yet.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint field names.
const (
	fieldInProgress     = "in_progress"
	fieldCurrentGroupID = "current_group_id"
	fieldCurrentLeader  = "current_leader"
	fieldDeadline       = "deadline"
	fieldQueue          = "queued_group_ids"
	fieldQueueSize      = "queue_size"
	fieldStartedAt      = "started_at"
	fieldStartedBy      = "started_by"
	fieldUpdatedAt      = "updated_at"
	fieldHostname       = "hostname"
	fieldUsername       = "username"
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the checkpoint from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.RunSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode checkpoint file: %w", err)
	}

	return fromStruct(&document), nil
}

// Save writes the checkpoint to disk, replacing the file atomically.
func (r *FileRepository) Save(_ context.Context, snapshot *domain.RunSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, err := toStruct(snapshot)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write checkpoint file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace checkpoint file: %w", err)
	}

	return nil
}

// Clear removes the checkpoint. A missing file is not an error.
func (r *FileRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint file: %w", err)
	}

	return nil
}

// toStruct converts the snapshot into a protobuf Struct.
func toStruct(snapshot *domain.RunSnapshot) (*structpb.Struct, error) {
	queue := make([]any, 0, len(snapshot.QueuedGroupIDs))
	for _, id := range snapshot.QueuedGroupIDs {
		queue = append(queue, id)
	}

	fields := map[string]any{
		fieldInProgress:     snapshot.InProgress,
		fieldCurrentGroupID: snapshot.CurrentGroupID,
		fieldCurrentLeader:  snapshot.CurrentLeader,
		fieldDeadline:       formatTime(snapshot.Deadline),
		fieldQueue:          queue,
		fieldQueueSize:      snapshot.QueueSize,
		fieldStartedAt:      formatTime(snapshot.StartedAt),
		fieldUpdatedAt:      formatTime(snapshot.UpdatedAt),
	}

	if snapshot.StartedBy != nil {
		fields[fieldStartedBy] = map[string]any{
			fieldHostname: snapshot.StartedBy.Hostname,
			fieldUsername: snapshot.StartedBy.Username,
		}
	}

	return structpb.NewStruct(fields)
}

// fromStruct converts a protobuf Struct back into the snapshot. Unknown or
// malformed fields are left at their zero values.
func fromStruct(document *structpb.Struct) *domain.RunSnapshot {
	fields := document.GetFields()
	snapshot := &domain.RunSnapshot{
		InProgress:     fields[fieldInProgress].GetBoolValue(),
		CurrentGroupID: fields[fieldCurrentGroupID].GetStringValue(),
		CurrentLeader:  fields[fieldCurrentLeader].GetStringValue(),
		Deadline:       parseTime(fields[fieldDeadline].GetStringValue()),
		QueueSize:      int(fields[fieldQueueSize].GetNumberValue()),
		StartedAt:      parseTime(fields[fieldStartedAt].GetStringValue()),
		UpdatedAt:      parseTime(fields[fieldUpdatedAt].GetStringValue()),
	}

	for _, value := range fields[fieldQueue].GetListValue().GetValues() {
		snapshot.QueuedGroupIDs = append(snapshot.QueuedGroupIDs, value.GetStringValue())
	}

	if actor := fields[fieldStartedBy].GetStructValue(); actor != nil {
		snapshot.StartedBy = &domain.Actor{
			Hostname: actor.GetFields()[fieldHostname].GetStringValue(),
			Username: actor.GetFields()[fieldUsername].GetStringValue(),
		}
	}

	return snapshot
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}

	return parsed
}
