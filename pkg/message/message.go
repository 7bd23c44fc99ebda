// Kunhua Huang 2026

package message

const (
	DefaultBufferSize = 1024

	Request     = "Hello from client"
	Reply       = "Hello from server"
	SecondReply = "Another message from server"
)

// RequestBytes returns the request payload. With trailingNUL set the payload
// carries one extra zero byte, matching the 18 bytes older clients put on the wire.
func RequestBytes(text string, trailingNUL bool) []byte {
	if !trailingNUL {
		return []byte(text)
	}

	b := make([]byte, len(text)+1)
	copy(b, text)
	return b
}

// Buffer is a fixed-size receive buffer that is only trusted up to the
// length of the most recent read.
type Buffer struct {
	data []byte
	n    int
}

func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{data: make([]byte, size)}
}

// Reset zeroes the whole backing array and forgets the last read length.
func (b *Buffer) Reset() {
	clear(b.data)
	b.n = 0
}

// Space returns the cleared backing array for the next read.
func (b *Buffer) Space() []byte {
	b.Reset()
	return b.data
}

// Commit records how many bytes the last read produced.
func (b *Buffer) Commit(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(b.data) {
		n = len(b.data)
	}
	b.n = n
}

func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

func (b *Buffer) Len() int {
	return b.n
}

func (b *Buffer) Cap() int {
	return len(b.data)
}

// Text decodes the valid bytes for display. Trailing NUL bytes are dropped so
// a NUL-terminated payload prints the same as a plain one.
func (b *Buffer) Text() string {
	return Text(b.Bytes())
}

func Text(p []byte) string {
	end := len(p)
	for end > 0 && p[end-1] == 0 {
		end--
	}
	return string(p[:end])
}
