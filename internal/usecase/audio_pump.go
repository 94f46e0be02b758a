package usecase

import (
	"errors"
	"fmt"
	"io"

	"voicerecorder/internal/domain"
	"voicerecorder/internal/ports"
)

// pumpAudioChunks drains the encoder session into the session's buffer until
// EOF. It closes done once the last chunk has been appended.
func pumpAudioChunks(
	audio ports.AudioSession,
	chunks *chunkBuffer,
	chunkSize int,
	events ports.EventSink,
	done chan struct{},
) {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			chunks.Append(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("audio capture error: %v", err))
			}
			return
		}
	}
}
