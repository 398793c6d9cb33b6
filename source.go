package gifn

import "io"

// memorySource is a pull-style cursor over a caller-owned byte slice.
// It is handed to the codec engine as its input for the duration of one decode call.
type memorySource struct {
	data []byte
	off  int // 0 <= off <= len(data)
}

func (s *memorySource) reset(data []byte) {
	s.data = data
	s.off = 0
}

// Read copies up to len(p) of the remaining bytes and advances the cursor.
// At the end of data it returns 0, io.EOF and leaves judging a truncated stream to the codec.
func (s *memorySource) Read(p []byte) (int, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}

	n := copy(p, s.data[s.off:])
	s.off += n

	return n, nil
}

// Len returns the number of unread bytes.
func (s *memorySource) Len() int {
	return len(s.data) - s.off
}
