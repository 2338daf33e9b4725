package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"wikigraph/backend/internal/view"
	apperrors "wikigraph/backend/pkg/errors"
	"wikigraph/backend/pkg/logger"
)

// Narration audio comes back from the provider as raw PCM in this format
const (
	channels   = 1
	sampleRate = 24000
	bitDepth   = 16
)

// Synthesizer renders narration text to raw PCM bytes
type Synthesizer interface {
	SynthesizeAudio(ctx context.Context, text string) ([]byte, error)
}

// Store persists the narration reference on an existing view
type Store interface {
	UpdateViewAudio(ctx context.Context, viewID, audioRef string) error
}

// Manager synthesizes and stores narration artifacts for views. Narration is
// created lazily on demand, never during view synthesis.
type Manager struct {
	store  Store
	synth  Synthesizer
	dir    string
	logger *zap.Logger
}

// NewManager creates a new audio manager writing artifacts under dir
func NewManager(store Store, synth Synthesizer, dir string) *Manager {
	return &Manager{
		store:  store,
		synth:  synth,
		dir:    dir,
		logger: logger.Get(),
	}
}

// CreateAndSaveAudio synthesizes narration for the view's summary, wraps it
// in a WAV container, writes it under the artifact directory and updates the
// stored audio reference in place. Returns the artifact path.
func (m *Manager) CreateAndSaveAudio(ctx context.Context, v *view.View) (string, error) {
	pcm, err := m.synth.SynthesizeAudio(ctx, v.Summary)
	if err != nil {
		return "", apperrors.NewAudioSynthesisFailed(v.PageName, err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.wav", sanitizeFileName(v.PageName), uuid.NewString()[:8])
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, encodeWAV(pcm), 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio artifact: %w", err)
	}

	v.Audio = path
	if err := m.store.UpdateViewAudio(ctx, v.ID, path); err != nil {
		return "", err
	}

	m.logger.Info("Audio created",
		zap.String("page", v.PageName),
		zap.String("path", path),
	)
	return path, nil
}

// encodeWAV wraps raw PCM data in a minimal RIFF/WAVE container
func encodeWAV(pcm []byte) []byte {
	const headerSize = 44
	blockAlign := channels * bitDepth / 8
	byteRate := sampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(pcm)))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16)) // PCM chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM format
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitDepth))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func sanitizeFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
