package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Output is where decoded sounds go. The default is the system speaker.
type Output interface {
	Init(rate beep.SampleRate) error
	Play(s beep.Streamer)
	Close()
}

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate) error {
	return speaker.Init(rate, rate.N(100*time.Millisecond))
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }

func (speakerOutput) Close() { speaker.Close() }

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".wav": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	".ogg": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".oga": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".mp3": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
}

// Player decodes sound files once and plays them from memory.
type Player struct {
	logger *slog.Logger
	output Output

	mu          sync.Mutex
	volume      float64 // 0.0 to 1.0
	initialized bool
	sampleRate  beep.SampleRate
	cache       map[string]*beep.Buffer
}

// NewPlayer creates a player on output; nil uses the speaker.
func NewPlayer(output Output, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	if output == nil {
		output = speakerOutput{}
	}
	return &Player{
		logger: logger,
		output: output,
		volume: 1.0,
		cache:  make(map[string]*beep.Buffer),
	}
}

// SetVolume sets the playback volume, clamped to [0, 1].
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(volume, 0), 1)
}

// Volume returns the playback volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Load decodes path into the cache unless it is already there.
func (p *Player) Load(path string) (*beep.Buffer, error) {
	p.mu.Lock()
	buf, ok := p.cache[path]
	p.mu.Unlock()
	if ok {
		return buf, nil
	}

	buf, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[path] = buf
	p.mu.Unlock()
	p.logger.Debug("sound decoded", "path", path, "samples", buf.Len())
	return buf, nil
}

func decodeFile(path string) (*beep.Buffer, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	streamer, format, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	defer func() { _ = streamer.Close() }()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	return buf, nil
}

// Play loads path if needed and starts playing it. It does not wait for
// playback to finish.
func (p *Player) Play(path string) error {
	if path == "" {
		return nil
	}
	buf, err := p.Load(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		rate := buf.Format().SampleRate
		if err := p.output.Init(rate); err != nil {
			return fmt.Errorf("failed to initialize audio output: %w", err)
		}
		p.sampleRate = rate
		p.initialized = true
		p.logger.Debug("audio output initialized", "sample_rate", rate)
	}

	var s beep.Streamer = buf.Streamer(0, buf.Len())
	if buf.Format().SampleRate != p.sampleRate {
		s = beep.Resample(4, buf.Format().SampleRate, p.sampleRate, s)
	}
	if p.volume < 1 {
		s = &effects.Volume{
			Streamer: s,
			Base:     10,
			Volume:   volumeToExponent(p.volume),
			Silent:   p.volume == 0,
		}
	}

	p.output.Play(s)
	return nil
}

// Forget drops every decoded sound.
func (p *Player) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.cache)
}

// Close releases the audio output.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		p.output.Close()
		p.initialized = false
	}
	clear(p.cache)
}

// volumeToExponent maps a linear volume to the base-10 exponent used by
// effects.Volume, so 0.1 attenuates by one order of magnitude.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log10(volume)
}
