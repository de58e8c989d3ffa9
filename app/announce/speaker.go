package announce

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
)

// ExecSpeaker shells out to a platform text-to-speech command and waits for
// it to finish. The rate flag differs per tool; the common ones are mapped
// by command name, anything else gets the text only.
type ExecSpeaker struct {
	command string
}

func NewExecSpeaker(command string) *ExecSpeaker {
	return &ExecSpeaker{command: command}
}

func (s *ExecSpeaker) Speak(ctx context.Context, text string, rate float64) error {
	if s.command == "" {
		return nil
	}

	args := s.buildArgs(text, rate)
	cmd := exec.CommandContext(ctx, s.command, args...)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("speech cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("speech command failed: %w", err)
	}

	return nil
}

func (s *ExecSpeaker) buildArgs(text string, rate float64) []string {
	rateArg := strconv.Itoa(int(rate))

	switch filepath.Base(s.command) {
	case "say":
		return []string{"-r", rateArg, text}
	case "espeak", "espeak-ng":
		return []string{"-s", rateArg, text}
	default:
		return []string{text}
	}
}

// ExecSoundPlayer shells out to an audio player command with a sound file
// resolved against the configured sounds directory.
type ExecSoundPlayer struct {
	command   string
	soundsDir string
}

func NewExecSoundPlayer(command, soundsDir string) *ExecSoundPlayer {
	return &ExecSoundPlayer{command: command, soundsDir: soundsDir}
}

func (p *ExecSoundPlayer) Play(ctx context.Context, name string) error {
	if p.command == "" || name == "" {
		return nil
	}

	path := name
	if !filepath.IsAbs(path) && p.soundsDir != "" {
		path = filepath.Join(p.soundsDir, name)
	}

	cmd := exec.CommandContext(ctx, p.command, path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sound command failed: %w", err)
	}

	return nil
}
