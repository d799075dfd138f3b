// Package eventstream reads and writes decoded demo records as JSON lines, one record per line:
//
//	{"tick":120,"type":"player_death","data":{"userid":3,"attacker":0,"weapon":"world"}}
//
// Streams may be zstd compressed, Open detects this from the content.
package eventstream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/leighmacdonald/demoinspect/pkg/analyser"
	"github.com/leighmacdonald/demoinspect/pkg/log"
	"github.com/leighmacdonald/demoinspect/pkg/zstd"
)

var (
	ErrOpenStream        = errors.New("failed to open record stream")
	ErrUnsupportedStream = errors.New("unsupported stream content type")
)

const (
	maxLineSize = 4 * 1024 * 1024
	sniffSize   = 3072
)

// Decoder reads records from a JSON lines stream.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

func NewDecoder(reader io.Reader) *Decoder {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Decoder{scanner: scanner}
}

// Next returns the next record, or io.EOF once the stream is exhausted. Blank lines are skipped.
func (d *Decoder) Next() (analyser.Record, error) {
	for d.scanner.Scan() {
		d.line++

		body := d.scanner.Bytes()
		if len(body) == 0 {
			continue
		}

		var rec line
		if errJSON := json.Unmarshal(body, &rec); errJSON != nil {
			return analyser.Record{}, errors.Join(errJSON, fmt.Errorf("%w: line %d", ErrDecodeRecord, d.line))
		}

		payload, errPayload := toPayload(rec)
		if errPayload != nil {
			return analyser.Record{}, errors.Join(errPayload, fmt.Errorf("%w: line %d", ErrDecodeRecord, d.line))
		}

		return analyser.Record{Tick: rec.Tick, Payload: payload}, nil
	}

	if err := d.scanner.Err(); err != nil {
		return analyser.Record{}, errors.Join(err, ErrDecodeRecord)
	}

	return analyser.Record{}, io.EOF
}

// Encoder writes records in the format Decoder reads.
type Encoder struct {
	enc *json.Encoder
}

func NewEncoder(writer io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(writer)}
}

func (e *Encoder) Encode(record analyser.Record) error {
	kind, data, errPayload := fromPayload(record.Payload)
	if errPayload != nil {
		return errPayload
	}

	out := line{Tick: record.Tick, Type: kind}

	if data != nil {
		body, errJSON := json.Marshal(data)
		if errJSON != nil {
			return errors.Join(errJSON, ErrEncodeRecord)
		}

		out.Data = body
	}

	if err := e.enc.Encode(out); err != nil {
		return errors.Join(err, ErrEncodeRecord)
	}

	return nil
}

type stream struct {
	io.Reader

	closers []io.Closer
}

func (s *stream) Close() error {
	var err error
	for idx := len(s.closers) - 1; idx >= 0; idx-- {
		err = errors.Join(err, s.closers[idx].Close())
	}

	return err
}

// NewReader sniffs the content of reader and transparently decompresses zstd input. Plain text
// input is passed through. The returned closer does not close reader.
func NewReader(reader io.Reader) (io.ReadCloser, error) {
	buffered := bufio.NewReaderSize(reader, sniffSize)

	header, errPeek := buffered.Peek(sniffSize)
	if errPeek != nil && !errors.Is(errPeek, io.EOF) && !errors.Is(errPeek, bufio.ErrBufferFull) {
		return nil, errors.Join(errPeek, ErrOpenStream)
	}

	mime := mimetype.Detect(header)

	if mime.Is("application/zstd") {
		decompressed, errZstd := zstd.NewReader(buffered)
		if errZstd != nil {
			return nil, errors.Join(errZstd, ErrOpenStream)
		}

		return &stream{Reader: decompressed, closers: []io.Closer{decompressed}}, nil
	}

	for current := mime; current != nil; current = current.Parent() {
		if current.Is("text/plain") {
			return &stream{Reader: buffered}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedStream, mime.String())
}

// Open opens a stream file, compressed or not.
func Open(path string) (io.ReadCloser, error) {
	file, errOpen := os.Open(path)
	if errOpen != nil {
		return nil, errors.Join(errOpen, ErrOpenStream)
	}

	reader, errReader := NewReader(file)
	if errReader != nil {
		log.Closer(file)

		return nil, errReader
	}

	wrapped, _ := reader.(*stream)
	wrapped.closers = append([]io.Closer{file}, wrapped.closers...)

	return wrapped, nil
}

// Apply feeds every record of reader to the analyser, checking ctx between records. Records of kinds
// the analyser does not consume are skipped before reaching it.
func Apply(ctx context.Context, reader io.Reader, fold *analyser.Analyser) (int, error) {
	var (
		decoder = NewDecoder(reader)
		count   int
	)

	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		record, errNext := decoder.Next()
		if errNext != nil {
			if errors.Is(errNext, io.EOF) {
				slog.Debug("Record stream complete", slog.Int("records", count))

				return count, nil
			}

			return count, errNext
		}

		count++

		if !fold.DoesHandle(record.Payload.Kind()) {
			continue
		}

		fold.Handle(record)
	}
}
