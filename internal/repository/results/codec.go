package results

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/photon-entanglement/internal/domain/run"
)

// Field names of the encoded record.
const (
	fieldID         = "id"
	fieldName       = "name"
	fieldTimestamp  = "timestamp"
	fieldActor      = "actor"
	fieldHostname   = "hostname"
	fieldUsername   = "username"
	fieldQuickMode  = "quick_mode"
	fieldParameters = "parameters"
	fieldResults    = "results"
)

// toProto converts the domain Record into a protobuf Struct.
func toProto(rec *run.Record) (*structpb.Struct, error) {
	var actor any
	if rec.Actor != nil {
		actor = map[string]any{
			fieldHostname: rec.Actor.Hostname,
			fieldUsername: rec.Actor.Username,
		}
	}

	var timestamp string
	if !rec.Timestamp.IsZero() {
		timestamp = rec.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	s, err := structpb.NewStruct(map[string]any{
		fieldID:         rec.ID.String(),
		fieldName:       rec.Name,
		fieldTimestamp:  timestamp,
		fieldActor:      actor,
		fieldQuickMode:  rec.QuickMode,
		fieldParameters: sanitize(rec.Parameters),
		fieldResults:    sanitize(rec.Results),
	})
	if err != nil {
		return nil, fmt.Errorf("convert record: %w", err)
	}

	return s, nil
}

// fromProto converts a protobuf Struct back into the domain Record.
// Numbers come back as float64 and lists as []any.
func fromProto(s *structpb.Struct) (*run.Record, error) {
	fields := s.AsMap()

	rec := &run.Record{
		Name:       stringField(fields, fieldName),
		Parameters: mapField(fields, fieldParameters),
		Results:    mapField(fields, fieldResults),
	}

	if quick, ok := fields[fieldQuickMode].(bool); ok {
		rec.QuickMode = quick
	}

	id, err := uuid.Parse(stringField(fields, fieldID))
	if err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}

	rec.ID = id

	if ts := stringField(fields, fieldTimestamp); ts != "" {
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse record timestamp: %w", err)
		}
	}

	if actor, ok := fields[fieldActor].(map[string]any); ok {
		rec.Actor = &run.Actor{
			Hostname: stringField(actor, fieldHostname),
			Username: stringField(actor, fieldUsername),
		}
	}

	return rec, nil
}

// sanitize rewrites v into the shapes structpb accepts. Non-finite floats
// become null and typed slices become []any.
//
//nolint:cyclop // A flat type switch reads better than a dispatch table.
func sanitize(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int, int32, int64, uint, uint32, uint64:
		return x
	case float32:
		return finite(float64(x))
	case float64:
		return finite(x)
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = finite(f)
		}

		return out
	case [][]float64:
		out := make([]any, len(x))
		for i, row := range x {
			out[i] = sanitize(row)
		}

		return out
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}

		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = sanitize(e)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = sanitize(e)
		}

		return out
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	return f
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)

	return s
}

func mapField(fields map[string]any, key string) map[string]any {
	m, ok := fields[key].(map[string]any)
	if !ok {
		return make(map[string]any)
	}

	return m
}
