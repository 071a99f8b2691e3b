package history

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/snappy"
)

// Segment file layout. Every frame carries its own checksum so a reader
// can spot corruption without trusting the file length.
//
//	header: [magic:4][version:4]
//	frame:  [seq:8][dataLen:4][snappy(json entry):N][crc32(compressed):4]
const (
	segmentMagic      uint32 = 0x54474831 // "TGH1"
	segmentVersion    uint32 = 1
	segmentHeaderSize        = 8
	frameHeaderSize          = 12
)

// SegmentLog is a file-backed prediction store. Entries append as
// snappy-compressed frames; validating an entry appends a corrected copy
// instead of rewriting the original, and reads keep the latest copy per id.
type SegmentLog struct {
	file   *os.File
	writer *bufio.Writer
	path   string
	seq    uint64
	mu     sync.Mutex

	totalWrites       uint64
	bytesUncompressed uint64
	bytesCompressed   uint64
}

// NewSegmentLog opens or creates a segment file. Existing frames are
// scanned once to recover the sequence counter; a corrupt frame fails the
// open rather than silently truncating history.
func NewSegmentLog(path string) (*SegmentLog, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open segment: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat segment: %w", err)
	}

	s := &SegmentLog{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
	}

	if info.Size() == 0 {
		if err := s.writeHeader(); err != nil {
			file.Close()
			return nil, fmt.Errorf("write segment header: %w", err)
		}
	} else if err := s.recoverSeq(); err != nil {
		file.Close()
		return nil, fmt.Errorf("recover segment: %w", err)
	}

	return s, nil
}

func (s *SegmentLog) writeHeader() error {
	if err := binary.Write(s.writer, binary.BigEndian, segmentMagic); err != nil {
		return err
	}
	if err := binary.Write(s.writer, binary.BigEndian, segmentVersion); err != nil {
		return err
	}
	return s.writer.Flush()
}

// recoverSeq replays the file to find the last sequence number.
func (s *SegmentLog) recoverSeq() error {
	_, seq, err := readSegmentFile(s.path)
	if err != nil {
		return err
	}
	s.seq = seq
	return nil
}

// Record appends a prediction entry
func (s *SegmentLog) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.ID == "" {
		e.ID = newEntryID()
	}

	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return s.appendFrame(data)
}

// appendFrame writes one compressed frame. Callers hold the lock.
func (s *SegmentLog) appendFrame(data []byte) error {
	s.seq++
	compressed := snappy.Encode(nil, data)
	checksum := crc32.ChecksumIEEE(compressed)

	s.totalWrites++
	s.bytesUncompressed += uint64(len(data))
	s.bytesCompressed += uint64(len(compressed))

	if err := binary.Write(s.writer, binary.BigEndian, s.seq); err != nil {
		return err
	}
	if err := binary.Write(s.writer, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := s.writer.Write(compressed); err != nil {
		return err
	}
	if err := binary.Write(s.writer, binary.BigEndian, checksum); err != nil {
		return err
	}
	return s.writer.Flush()
}

// Entries retrieves entries matching the filter, oldest first
func (s *SegmentLog) Entries(f *Filter) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := readSegmentFile(s.path)
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

// MarkValidated fills in the outcome of a recorded prediction
func (s *SegmentLog) MarkValidated(id, actualValue string, accurate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := readSegmentFile(s.path)
	if err != nil {
		return err
	}

	for _, e := range dedupeLatest(entries) {
		if e.ID != id {
			continue
		}
		now := time.Now()
		e.ValidatedAt = &now
		e.ActualValue = actualValue
		e.Accurate = &accurate

		data, err := json.Marshal(&e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return s.appendFrame(data)
	}
	return ErrEntryNotFound
}

// Stats aggregates accuracy statistics over the whole log
func (s *SegmentLog) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := readSegmentFile(s.path)
	if err != nil {
		return Stats{}, err
	}
	return statsOf(dedupeLatest(entries)), nil
}

// Flush forces buffered frames to disk.
func (s *SegmentLog) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close flushes and closes the segment file.
func (s *SegmentLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return err
	}
	if err := s.file.Sync(); err != nil {
		return err
	}
	return s.file.Close()
}

// SegmentStats reports compression effectiveness for this process's writes.
type SegmentStats struct {
	TotalWrites       uint64
	BytesUncompressed uint64
	BytesCompressed   uint64
	CompressionRatio  float64
}

// Statistics returns compression statistics for frames written since open.
func (s *SegmentLog) Statistics() SegmentStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	ratio := 0.0
	if s.bytesUncompressed > 0 {
		ratio = 1.0 - float64(s.bytesCompressed)/float64(s.bytesUncompressed)
	}
	return SegmentStats{
		TotalWrites:       s.totalWrites,
		BytesUncompressed: s.bytesUncompressed,
		BytesCompressed:   s.bytesCompressed,
		CompressionRatio:  ratio,
	}
}

var _ Store = (*SegmentLog)(nil)

// readSegmentFile decodes every frame in a segment, returning the raw
// entry sequence (duplicates included) and the last sequence number.
func readSegmentFile(path string) ([]Entry, uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	var magic, version uint32
	if err := binary.Read(reader, binary.BigEndian, &magic); err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	if magic != segmentMagic {
		return nil, 0, fmt.Errorf("not a history segment: magic %#x", magic)
	}
	if err := binary.Read(reader, binary.BigEndian, &version); err != nil {
		return nil, 0, err
	}
	if version != segmentVersion {
		return nil, 0, fmt.Errorf("unsupported segment version %d", version)
	}

	var entries []Entry
	var lastSeq uint64

	for {
		var seq uint64
		if err := binary.Read(reader, binary.BigEndian, &seq); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, err
		}

		var dataLen uint32
		if err := binary.Read(reader, binary.BigEndian, &dataLen); err != nil {
			return nil, 0, err
		}

		compressed := make([]byte, dataLen)
		if _, err := io.ReadFull(reader, compressed); err != nil {
			return nil, 0, err
		}

		var checksum uint32
		if err := binary.Read(reader, binary.BigEndian, &checksum); err != nil {
			return nil, 0, err
		}
		if crc32.ChecksumIEEE(compressed) != checksum {
			return nil, 0, fmt.Errorf("checksum mismatch for frame %d", seq)
		}

		data, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, 0, fmt.Errorf("decompress frame %d: %w", seq, err)
		}

		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, 0, fmt.Errorf("decode frame %d: %w", seq, err)
		}

		entries = append(entries, e)
		lastSeq = seq
	}

	return entries, lastSeq, nil
}

// dedupeLatest collapses re-recorded ids to their newest copy while keeping
// each entry at its first position.
func dedupeLatest(entries []Entry) []Entry {
	byID := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if at, ok := byID[e.ID]; ok {
			out[at] = e
			continue
		}
		byID[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}
