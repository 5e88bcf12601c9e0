package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --- 1. Process Safety & Command Wrapping ---

// SafeCommand wraps exec.Cmd with a buffer that keeps Stderr,
// so a failing ffprobe still tells us why.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand initializes a command and attaches a buffer to its Stderr pipe.
// It prepares the command for execution but does not start it.
func NewSafeCommand(name string, args ...string) *SafeCommand {
	cmd := exec.Command(name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// ShowError prints the unified error box without exiting.
func ShowError(context string, err error, s *SafeCommand) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 ANTPAIR ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}
	if s != nil && s.Stderr.Len() > 0 {
		fmt.Fprintf(os.Stderr, "\nTOOL OUTPUT:\n%s\n", s.Stderr.String())
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// --- 2. Logging ---

// NewLogger builds the zap logger used by every command. verbose forces
// debug level regardless of level.
func NewLogger(level, format string, verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.OutputPaths = []string{"stderr"}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// --- 3. Video Probing (Shared by Export) ---

// ErrNoVideoStream is returned when ffprobe finds nothing to measure.
var ErrNoVideoStream = errors.New("no video stream found")

// ProbeFrameSize asks ffprobe for the pixel size of the first video stream.
func ProbeFrameSize(path string) (width, height int, err error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, 0, fmt.Errorf("ffprobe not found, pass --frame-size instead: %w", err)
	}

	cmd := NewSafeCommand("ffprobe", "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height", "-of", "json", path)
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(cmd.Stderr.String())
		if msg != "" {
			return 0, 0, fmt.Errorf("ffprobe failed: %w: %s", err, msg)
		}
		return 0, 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(out)
}

func parseProbeOutput(out []byte) (int, int, error) {
	var res struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &res); err != nil {
		return 0, 0, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}
	if len(res.Streams) == 0 || res.Streams[0].Width <= 0 || res.Streams[0].Height <= 0 {
		return 0, 0, ErrNoVideoStream
	}
	return res.Streams[0].Width, res.Streams[0].Height, nil
}

// ParseFrameSize reads a "WIDTHxHEIGHT" string such as "1920x1080".
func ParseFrameSize(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid frame size %q (want WIDTHxHEIGHT)", s)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid frame size %q (want WIDTHxHEIGHT)", s)
	}
	return width, height, nil
}

// --- 4. Identity ---

// GenerateFileID creates a deterministic hash for a file based on its
// path, size and modification time.
func GenerateFileID(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	input := fmt.Sprintf("%s-%d-%d", path, info.Size(), info.ModTime().UnixNano())
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:]), nil
}
