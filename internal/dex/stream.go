package dex

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"exchangePricing/internal/model"
)

// RecordWriter receives decoded events or decode errors.
type RecordWriter interface {
	Write(value interface{}) error
}

// StreamStats counts the outcome of every non-blank input line.
type StreamStats struct {
	Total   int
	Decoded int
	Skipped int
	Failed  int
}

// DecodeStream reads raw log JSONL from r and writes typed events to out.
// Lines that cannot be decoded go to errs and do not stop the stream;
// removed logs and unknown topics are skipped.
func DecodeStream(ctx context.Context, decoder Decoder, r io.Reader, out, errs RecordWriter) (StreamStats, error) {
	var stats StreamStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			reportError(errs, model.DecodeError{Error: err.Error()})
			continue
		}
		if record.Removed {
			stats.Skipped++
			continue
		}
		if len(record.Topics) == 0 {
			stats.Failed++
			reportError(errs, newDecodeError(record, fmt.Errorf("missing topic0")))
			continue
		}
		if !decoder.CanDecode(record.Topics[0]) {
			stats.Skipped++
			continue
		}

		event, err := decoder.Decode(record)
		if err != nil {
			stats.Failed++
			reportError(errs, newDecodeError(record, err))
			continue
		}
		if err := out.Write(event); err != nil {
			return stats, fmt.Errorf("write event: %w", err)
		}
		stats.Decoded++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}

func newDecodeError(record model.LogRecord, err error) model.DecodeError {
	out := model.DecodeError{
		ChainID:     record.ChainID,
		BlockNumber: record.BlockNumber,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		Address:     record.Address,
		Error:       err.Error(),
	}
	if len(record.Topics) > 0 {
		out.Topic0 = record.Topics[0]
	}
	return out
}

// reportError is best effort; a failing error sink never stops decoding.
func reportError(errs RecordWriter, decodeErr model.DecodeError) {
	if errs == nil {
		return
	}
	_ = errs.Write(decodeErr)
}
