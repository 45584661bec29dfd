package storage

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/oneee-playground/r2d2-rtsim/internal/history"
	protofmt "github.com/oneee-playground/r2d2-rtsim/internal/util/proto"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	_filepathWindow  = "window"
	_filepathRecords = "records"
)

// FSStorage keeps one directory per run: the window bounds and the
// length-prefixed tick records.
type FSStorage struct {
	root string
}

var _ history.Storage = (*FSStorage)(nil)

func NewFSStorage(root string) *FSStorage {
	return &FSStorage{root: root}
}

// Insert writes h under runID, replacing any earlier history of the run.
func (s *FSStorage) Insert(ctx context.Context, runID uuid.UUID, h history.History) error {
	window, err := encodeWindow(h.Start(), h.End())
	if err != nil {
		return errors.Wrap(err, "encoding window")
	}

	if err := s.writeRaw(s.path(runID, _filepathWindow), func(w io.Writer) error {
		return writeMessage(w, window)
	}); err != nil {
		return errors.Wrap(err, "writing window")
	}

	return s.writeRaw(s.path(runID, _filepathRecords), func(w io.Writer) error {
		for _, rec := range h.Records() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			m, err := encodeRecord(rec)
			if err != nil {
				return errors.Wrap(err, "encoding record")
			}

			if err := writeMessage(w, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// Fetch reads a whole history back.
func (s *FSStorage) Fetch(ctx context.Context, runID uuid.UUID) (history.History, error) {
	file, err := os.Open(s.path(runID, _filepathWindow))
	if err != nil {
		return history.History{}, errors.Wrap(err, "opening window path")
	}
	defer file.Close()

	window := new(structpb.Struct)
	if err := protofmt.NewDecoder(file).Decode(window); err != nil {
		return history.History{}, errors.Wrap(err, "decoding window")
	}
	start, end := decodeWindow(window)

	var records []history.Record

	stream, errchan := s.Stream(ctx, runID)
	for rec := range stream {
		records = append(records, rec)
	}

	select {
	case err := <-errchan:
		return history.History{}, err
	default:
	}

	return history.New(start, end, records), nil
}

// Stream emits the records of a run in tick order. The stream is closed
// when the records are exhausted or an error is sent on errchan.
func (s *FSStorage) Stream(ctx context.Context, runID uuid.UUID) (<-chan history.Record, <-chan error) {
	stream := make(chan history.Record)
	errchan := make(chan error, 1)

	go func() {
		defer close(stream)

		file, err := os.Open(s.path(runID, _filepathRecords))
		if err != nil {
			errchan <- errors.Wrap(err, "opening records path")
			return
		}
		defer file.Close()

		dec := protofmt.NewDecoder(bufio.NewReader(file))
		for {
			if err := ctx.Err(); err != nil {
				errchan <- errors.Wrap(err, "streaming records")
				return
			}

			dst := new(structpb.Struct)

			err := dec.Decode(dst)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errchan <- errors.Wrap(err, "decoding record")
				return
			}

			select {
			case <-ctx.Done():
				errchan <- errors.Wrap(ctx.Err(), "streaming records")
				return
			case stream <- decodeRecord(dst):
			}
		}
	}()

	return stream, errchan
}

func (s *FSStorage) path(runID uuid.UUID, name string) string {
	return filepath.Join(s.root, runID.String(), name)
}

func (s *FSStorage) writeRaw(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0744); err != nil {
		return errors.Wrap(err, "mkdir all")
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "opening file")
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}

	return errors.Wrap(w.Flush(), "flushing file")
}

func writeMessage(w io.Writer, m *structpb.Struct) error {
	b, err := protofmt.MarshalWithSize(m)
	if err != nil {
		return errors.Wrap(err, "marshaling message")
	}

	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "writing message")
	}

	return nil
}
