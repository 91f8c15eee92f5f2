package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/chrisdamba/cotraffic/internal/cloudwriter"
	"github.com/chrisdamba/cotraffic/internal/models"
	"github.com/lucsky/cuid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type summaryRow struct {
	ReadingID              string `parquet:"name=readingId,type=BYTE_ARRAY,convertedtype=UTF8"`
	WestTotalTravelTimeSec int64  `parquet:"name=westTotalTravelTimeSec,type=INT64"`
	EastTotalTravelTimeSec int64  `parquet:"name=eastTotalTravelTimeSec,type=INT64"`
	DateTime               int64  `parquet:"name=dateTime,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
}

type rawTrafficRow struct {
	ReadingID string `parquet:"name=readingId,type=BYTE_ARRAY,convertedtype=UTF8"`
	FetchedAt int64  `parquet:"name=fetchedAt,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Payload   string `parquet:"name=payload,type=BYTE_ARRAY,convertedtype=UTF8"`
}

type parquetPartition struct {
	partition string
	writer    *writer.ParquetWriter
	file      source.ParquetFile
}

// ParquetArchive keeps a columnar copy of every reading, one file per
// collection and hour. Files are only readable once their writer is stopped,
// which happens when the hour rolls over or the archive is closed.
type ParquetArchive struct {
	basePath           string
	mu                 sync.Mutex
	writers            map[string]*parquetPartition
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
}

// CloudParquetFile adapts a CloudWriter to the parquet writer's file interface.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewParquetArchive(ctx context.Context, cfg models.ArchiveConfig) (*ParquetArchive, error) {
	if cfg.Destination != "s3" {
		return newParquetArchive(cfg.OutputPath, nil, ""), nil
	}
	factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
	}
	return newParquetArchive(cfg.OutputPath, factory, cfg.BucketName), nil
}

func newParquetArchive(basePath string, factory cloudwriter.CloudWriterFactory, bucket string) *ParquetArchive {
	return &ParquetArchive{
		basePath:           basePath,
		writers:            make(map[string]*parquetPartition),
		cloudWriterFactory: factory,
		cloudBucketName:    bucket,
	}
}

func (p *ParquetArchive) Insert(ctx context.Context, collection string, doc any) error {
	var row, proto interface{}
	_, at, err := documentKey(doc)
	if err != nil {
		return err
	}
	switch d := doc.(type) {
	case *models.SummaryRecord:
		row = summaryRow{
			ReadingID:              d.ID,
			WestTotalTravelTimeSec: int64(d.WestTotalTravelTimeSec),
			EastTotalTravelTimeSec: int64(d.EastTotalTravelTimeSec),
			DateTime:               d.DateTime.UnixMilli(),
		}
		proto = new(summaryRow)
	case *models.RawTrafficRecord:
		row = rawTrafficRow{
			ReadingID: d.ID,
			FetchedAt: d.FetchedAt.UnixMilli(),
			Payload:   string(d.Payload),
		}
		proto = new(rawTrafficRow)
	}

	partition := partitionPath(at)

	p.mu.Lock()
	defer p.mu.Unlock()

	pp, ok := p.writers[collection]
	if ok && pp.partition != partition {
		delete(p.writers, collection)
		if err := pp.stop(); err != nil {
			return fmt.Errorf("failed to finish %s partition %s: %w", collection, pp.partition, err)
		}
		ok = false
	}
	if !ok {
		pp, err = p.createNewWriter(collection, partition, proto)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
		p.writers[collection] = pp
	}

	if err := pp.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write %s row: %w", collection, err)
	}
	return nil
}

func (p *ParquetArchive) createNewWriter(collection, partition string, proto interface{}) (*parquetPartition, error) {
	name := fmt.Sprintf("part-%s.parquet", cuid.New())

	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		objectPath := path.Join(p.basePath, collection, partition, name)
		cloudWriter, err := p.cloudWriterFactory.NewWriter(p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cloudWriter)
	} else {
		fullPath := filepath.Join(p.basePath, collection, filepath.FromSlash(partition))
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return nil, err
		}
		var err error
		fw, err = local.NewLocalFileWriter(filepath.Join(fullPath, name))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	pw, err := writer.NewParquetWriter(fw, proto, 1)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	return &parquetPartition{partition: partition, writer: pw, file: fw}, nil
}

func (pp *parquetPartition) stop() error {
	if err := pp.writer.WriteStop(); err != nil {
		_ = pp.file.Close()
		return err
	}
	return pp.file.Close()
}

func (p *ParquetArchive) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for collection, pp := range p.writers {
		if err := pp.stop(); err != nil {
			lastErr = fmt.Errorf("closing %s partition %s: %w", collection, pp.partition, err)
		}
		delete(p.writers, collection)
	}
	return lastErr
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

// Open and Create return the receiver: the object is created implicitly by
// writing to it.
func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	case io.SeekEnd:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (n int, err error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (n int, err error) {
	n, err = c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
