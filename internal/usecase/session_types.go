package usecase

import (
	"sync"

	"github.com/samber/lo"

	"voicerecorder/internal/ports"
)

// recordingSession owns one capture from Start to Stop, including its chunks.
type recordingSession struct {
	cancel func()
	audio  ports.AudioSession
	chunks *chunkBuffer
	done   chan struct{}
}

// chunkBuffer keeps encoded chunks in arrival order.
type chunkBuffer struct {
	mu     sync.Mutex
	chunks [][]byte
}

func newChunkBuffer() *chunkBuffer {
	return &chunkBuffer{}
}

func (b *chunkBuffer) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	copied := append([]byte(nil), chunk...)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = append(b.chunks, copied)
}

func (b *chunkBuffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Bytes concatenates every chunk into one contiguous payload.
func (b *chunkBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := lo.SumBy(b.chunks, func(chunk []byte) int { return len(chunk) })
	out := make([]byte, 0, size)
	for _, chunk := range b.chunks {
		out = append(out, chunk...)
	}
	return out
}
