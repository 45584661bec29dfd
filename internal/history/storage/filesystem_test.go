package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/oneee-playground/r2d2-rtsim/internal/history"
	"github.com/oneee-playground/r2d2-rtsim/internal/util/proto"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"google.golang.org/protobuf/types/known/structpb"
)

type FSStorageSuite struct {
	suite.Suite
	base    string
	storage *FSStorage
	runID   uuid.UUID
	history history.History
}

func TestFSStorageSuite(t *testing.T) {
	suite.Run(t, new(FSStorageSuite))
}

func (s *FSStorageSuite) SetupTest() {
	s.base = s.T().TempDir()
	s.storage = NewFSStorage(s.base)
	s.runID = uuid.New()
	s.history = history.New(0, 4, []history.Record{
		{Tick: 0, TaskID: 1, JobID: 1, Resource: 1, Priority: 20, Effective: 0},
		{Tick: 1, TaskID: 1, JobID: 1, Resource: 1, Priority: 0, Effective: 0},
		{Tick: 2, TaskID: 2, JobID: 1, Priority: 5, Effective: 5},
		history.IdleRecord(3),
		history.IdleRecord(4),
	})
}

func (s *FSStorageSuite) TestInsert() {
	err := s.storage.Insert(context.Background(), s.runID, s.history)
	if !s.NoError(err) {
		return
	}

	file, err := os.Open(filepath.Join(s.base, s.runID.String(), _filepathRecords))
	if !s.NoError(err) {
		return
	}
	defer file.Close()

	dst := new(structpb.Struct)
	err = proto.NewDecoder(file).Decode(dst)
	if !s.NoError(err) {
		return
	}

	s.Equal(s.history.At(0), decodeRecord(dst))
}

func (s *FSStorageSuite) TestInsertReplaces() {
	s.Require().NoError(s.storage.Insert(context.Background(), s.runID, s.history))

	shorter := history.New(0, 1, []history.Record{history.IdleRecord(0)})
	s.Require().NoError(s.storage.Insert(context.Background(), s.runID, shorter))

	got, err := s.storage.Fetch(context.Background(), s.runID)
	if !s.NoError(err) {
		return
	}
	s.Equal(shorter, got)
}

func (s *FSStorageSuite) TestFetch() {
	defer goleak.VerifyNone(s.T())

	s.Require().NoError(s.storage.Insert(context.Background(), s.runID, s.history))

	got, err := s.storage.Fetch(context.Background(), s.runID)
	if !s.NoError(err) {
		return
	}

	s.Equal(s.history.Start(), got.Start())
	s.Equal(s.history.End(), got.End())
	s.Equal(s.history.Records(), got.Records())
}

func (s *FSStorageSuite) TestFetchUnknownRun() {
	_, err := s.storage.Fetch(context.Background(), uuid.New())
	s.Error(err)
}

func (s *FSStorageSuite) TestStream() {
	defer goleak.VerifyNone(s.T())

	s.Require().NoError(s.storage.Insert(context.Background(), s.runID, s.history))

	stream, errchan := s.storage.Stream(context.Background(), s.runID)

	idx := 0
loop:
	for {
		select {
		case got, ok := <-stream:
			if !ok {
				break loop
			}
			s.Equal(s.history.At(idx), got)
			idx++
		case err := <-errchan:
			s.Fail("err received from errchan", err)
			return
		}
	}

	s.Equal(s.history.Len(), idx)
}

func (s *FSStorageSuite) TestStreamCanceled() {
	defer goleak.VerifyNone(s.T())

	s.Require().NoError(s.storage.Insert(context.Background(), s.runID, s.history))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream, errchan := s.storage.Stream(ctx, s.runID)
	for range stream {
	}

	s.ErrorIs(<-errchan, context.Canceled)
}
