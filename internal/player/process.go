package player

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"shuffler/internal/playlist"
)

var (
	// ErrSpawn marks a player process that could not be started.
	ErrSpawn = errors.New("player spawn failed")
	// ErrProcessControl marks failures terminating or reaping the player.
	ErrProcessControl = errors.New("player process control failed")
)

// TrackPlaceholder is replaced by the track path in configured arguments.
const TrackPlaceholder = "{track}"

// Process is a launched player.
type Process interface {
	PID() int
	// Poll reports whether the process has exited without blocking.
	Poll() (bool, error)
	// Terminate asks the process to exit.
	Terminate() error
	// Kill forces the process to exit.
	Kill() error
	// Wait blocks until the process has been reaped or ctx is done.
	Wait(ctx context.Context) error
	// ExitErr returns the wait status once the process has exited.
	ExitErr() error
}

// Launcher starts a player for a track.
type Launcher interface {
	Launch(ctx context.Context, track playlist.Track) (Process, error)
}

// ExecLauncher runs Command with Args in its own process group.
type ExecLauncher struct {
	Command     string
	Args        []string
	AppendTrack bool
}

// BuildArgs returns the argument list for track.
func (l ExecLauncher) BuildArgs(track playlist.Track) []string {
	args := make([]string, 0, len(l.Args)+1)
	for _, arg := range l.Args {
		args = append(args, strings.ReplaceAll(arg, TrackPlaceholder, string(track)))
	}
	if l.AppendTrack {
		args = append(args, string(track))
	}
	return args
}

// Launch starts the player. Output streams are discarded.
func (l ExecLauncher) Launch(_ context.Context, track playlist.Track) (Process, error) {
	if strings.TrimSpace(l.Command) == "" {
		return nil, fmt.Errorf("%w: player command is empty", ErrSpawn)
	}
	cmd := exec.Command(l.Command, l.BuildArgs(track)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, l.Command, err)
	}
	proc := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		proc.exitErr = cmd.Wait()
		close(proc.done)
	}()
	return proc, nil
}

type execProcess struct {
	cmd     *exec.Cmd
	done    chan struct{}
	exitErr error
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Poll() (bool, error) {
	select {
	case <-p.done:
		return true, nil
	default:
		return false, nil
	}
}

func (p *execProcess) Terminate() error {
	return p.signalGroup(unix.SIGTERM)
}

func (p *execProcess) Kill() error {
	return p.signalGroup(unix.SIGKILL)
}

// signalGroup signals the whole process group so wrapper scripts do not
// leave their children playing.
func (p *execProcess) signalGroup(sig unix.Signal) error {
	if exited, _ := p.Poll(); exited {
		return nil
	}
	err := unix.Kill(-p.cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func (p *execProcess) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *execProcess) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}
