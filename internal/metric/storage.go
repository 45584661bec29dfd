package metric

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

type Storage struct {
	client influxdb2.Client
}

func NewStorage(client influxdb2.Client) *Storage {
	return &Storage{client: client}
}

// WriteSession opens a non-blocking writer. Write failures are reported on
// the returned channel.
func (s *Storage) WriteSession(org, bucket string) (*WriteSession, <-chan error) {
	writer := s.client.WriteAPI(org, bucket)
	return &WriteSession{writer: writer}, writer.Errors()
}

type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

type WriteSession struct {
	writer pointWriter
}

func (ws *WriteSession) Write(point *write.Point) {
	ws.writer.WritePoint(point)
}

func (ws *WriteSession) Flush() {
	ws.writer.Flush()
}

// Close flushes pending points. The client owns the writer and closes it.
func (ws *WriteSession) Close() {
	ws.writer.Flush()
}
