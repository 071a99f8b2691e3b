package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"
)

// SegmentReader scans a sealed segment file through a memory map without
// copying it into the heap. Calibration tooling uses it to inspect logs
// written by another process; it never writes.
type SegmentReader struct {
	path string
	data *mmap.ReaderAt
	size int64
}

// OpenSegmentReader maps a segment file and verifies its header.
func OpenSegmentReader(path string) (*SegmentReader, error) {
	data, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("map segment: %w", err)
	}

	header := make([]byte, segmentHeaderSize)
	if _, err := data.ReadAt(header, 0); err != nil {
		data.Close()
		return nil, fmt.Errorf("read segment header: %w", err)
	}
	if magic := binary.BigEndian.Uint32(header[0:4]); magic != segmentMagic {
		data.Close()
		return nil, fmt.Errorf("not a history segment: magic %#x", magic)
	}
	if version := binary.BigEndian.Uint32(header[4:8]); version != segmentVersion {
		data.Close()
		return nil, fmt.Errorf("unsupported segment version %d", version)
	}

	return &SegmentReader{
		path: path,
		data: data,
		size: int64(data.Len()),
	}, nil
}

// Entries decodes every frame, keeping the latest copy of re-recorded ids,
// and returns the entries matching the filter oldest first.
func (r *SegmentReader) Entries(f *Filter) ([]Entry, error) {
	entries, err := r.readAll()
	if err != nil {
		return nil, err
	}

	result := make([]Entry, 0, len(entries))
	for _, e := range dedupeLatest(entries) {
		if f.matches(&e) {
			result = append(result, e)
		}
	}
	return result, nil
}

// Stats aggregates accuracy statistics over the whole segment.
func (r *SegmentReader) Stats() (Stats, error) {
	entries, err := r.readAll()
	if err != nil {
		return Stats{}, err
	}
	return statsOf(dedupeLatest(entries)), nil
}

func (r *SegmentReader) readAll() ([]Entry, error) {
	var entries []Entry
	offset := int64(segmentHeaderSize)

	for offset < r.size {
		header := make([]byte, frameHeaderSize)
		if _, err := r.data.ReadAt(header, offset); err != nil {
			return nil, fmt.Errorf("read frame header at %d: %w", offset, err)
		}
		seq := binary.BigEndian.Uint64(header[0:8])
		dataLen := binary.BigEndian.Uint32(header[8:12])
		offset += frameHeaderSize

		compressed := make([]byte, dataLen)
		if _, err := r.data.ReadAt(compressed, offset); err != nil {
			return nil, fmt.Errorf("read frame %d: %w", seq, err)
		}
		offset += int64(dataLen)

		trailer := make([]byte, 4)
		if _, err := r.data.ReadAt(trailer, offset); err != nil {
			return nil, fmt.Errorf("read frame %d checksum: %w", seq, err)
		}
		offset += 4

		if crc32.ChecksumIEEE(compressed) != binary.BigEndian.Uint32(trailer) {
			return nil, fmt.Errorf("checksum mismatch for frame %d", seq)
		}

		data, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, fmt.Errorf("decompress frame %d: %w", seq, err)
		}

		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", seq, err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// Path returns the mapped file's path.
func (r *SegmentReader) Path() string {
	return r.path
}

// Close unmaps the segment.
func (r *SegmentReader) Close() error {
	if r.data == nil {
		return nil
	}
	err := r.data.Close()
	r.data = nil
	return err
}

var _ io.Closer = (*SegmentReader)(nil)
