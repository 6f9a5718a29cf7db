package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// espeak-ng speaks at 175 words per minute and pitch 50 by default.
const (
	espeakBaseWPM   = 175
	espeakBasePitch = 50
)

// EspeakEngine speaks through an espeak-ng (or espeak) subprocess, one
// process per utterance. Cancel kills the running process.
type EspeakEngine struct {
	command string

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	voices []Voice
}

func NewEspeakEngine(command string) *EspeakEngine {
	if command == "" {
		command = "espeak-ng"
	}
	return &EspeakEngine{command: command}
}

// Voices runs `espeak-ng --voices` once and caches the result.
func (e *EspeakEngine) Voices() ([]Voice, error) {
	e.mu.Lock()
	cached := e.voices
	e.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	out, err := exec.Command(e.command, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s voices: %w", e.command, err)
	}
	voices := parseEspeakVoices(out)

	e.mu.Lock()
	e.voices = voices
	e.mu.Unlock()
	return voices, nil
}

// parseEspeakVoices reads the table printed by --voices:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US            (en 2)
func parseEspeakVoices(out []byte) []Voice {
	voices := []Voice{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voices = append(voices, Voice{
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: fields[1],
		})
	}
	return voices
}

func (e *EspeakEngine) Speak(u Utterance) error {
	args := []string{
		"-s", strconv.Itoa(int(espeakBaseWPM * ClampRate(u.Rate))),
		"-p", strconv.Itoa(int(espeakBasePitch * u.Pitch)),
	}
	switch {
	case u.Voice != "":
		args = append(args, "-v", strings.ReplaceAll(u.Voice, " ", "_"))
	case u.Lang != "":
		args = append(args, "-v", espeakLanguage(u.Lang))
	}
	args = append(args, "--", u.Text)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, e.command, args...)

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.cmd = cmd
	e.cancel = cancel
	e.mu.Unlock()

	if err := cmd.Start(); err != nil {
		cancel()
		e.release(cmd)
		return fmt.Errorf("failed to start %s: %w", e.command, err)
	}

	go func() {
		err := cmd.Wait()
		canceled := ctx.Err() != nil
		cancel()
		e.release(cmd)

		switch {
		case canceled:
			if u.OnError != nil {
				u.OnError(ErrCanceled)
			}
		case err != nil:
			if u.OnError != nil {
				u.OnError(err)
			}
		default:
			if u.OnEnd != nil {
				u.OnEnd()
			}
		}
	}()
	return nil
}

func (e *EspeakEngine) release(cmd *exec.Cmd) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == cmd {
		e.cmd = nil
		e.cancel = nil
	}
}

func (e *EspeakEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *EspeakEngine) Pause() {
	e.signal(pauseSignal)
}

func (e *EspeakEngine) Resume() {
	e.signal(resumeSignal)
}

func (e *EspeakEngine) signal(sig signalFunc) {
	e.mu.Lock()
	cmd := e.cmd
	e.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	err := sig(cmd)
	if err != nil && !errors.Is(err, errUnsupported) && !errors.Is(err, os.ErrProcessDone) {
		log.Printf("[SPEECH] Failed to signal %s: %v", e.command, err)
	}
}

// espeakLanguage maps reader language tags to espeak-ng voice names.
func espeakLanguage(tag string) string {
	switch tag {
	case "zh-cn":
		return "cmn"
	case "zh-hk":
		return "yue"
	}
	return tag
}
