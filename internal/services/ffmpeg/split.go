package ffmpeg

import "bytes"

// scanLinesOrCR is a bufio.SplitFunc that ends a token at '\n', '\r', or
// "\r\n". ffmpeg redraws its -stats line with bare carriage returns, so plain
// line scanning would hold every update until the encode finishes. A "\r\n"
// split across reads yields one extra empty token. A run of maxLineBytes
// without either byte is emitted as its own token so the scanner never stops
// reading with bufio.ErrTooLong.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if len(data) >= maxLineBytes {
		return maxLineBytes, data[:maxLineBytes], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
