package storage

import (
	"github.com/oneee-playground/r2d2-rtsim/internal/history"
	"github.com/oneee-playground/r2d2-rtsim/internal/task"
	"google.golang.org/protobuf/types/known/structpb"
)

func encodeRecord(rec history.Record) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"tick":      rec.Tick,
		"idle":      rec.Idle,
		"task":      rec.TaskID,
		"job":       rec.JobID,
		"resource":  rec.Resource,
		"priority":  int(rec.Priority),
		"effective": int(rec.Effective),
	})
}

func decodeRecord(s *structpb.Struct) history.Record {
	fields := s.GetFields()
	num := func(key string) int {
		return int(fields[key].GetNumberValue())
	}

	return history.Record{
		Tick:      num("tick"),
		Idle:      fields["idle"].GetBoolValue(),
		TaskID:    num("task"),
		JobID:     num("job"),
		Resource:  num("resource"),
		Priority:  task.Priority(num("priority")),
		Effective: task.Priority(num("effective")),
	}
}

func encodeWindow(start, end int) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"start": start,
		"end":   end,
	})
}

func decodeWindow(s *structpb.Struct) (start, end int) {
	fields := s.GetFields()
	return int(fields["start"].GetNumberValue()), int(fields["end"].GetNumberValue())
}
