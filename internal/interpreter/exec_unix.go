//go:build !windows

package interpreter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/term"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
)

// NewProcessGroupExecHandler runs external commands in their own process
// group and, when stdin is a terminal, hands that group the foreground for
// the duration of the command. Ctrl+C then reaches the child instead of the
// shell, and the shell keeps running once the child is gone.
//
// When ctx is cancelled the group receives SIGINT, followed by SIGKILL after
// killTimeout. A negative killTimeout sends SIGKILL right away.
func NewProcessGroupExecHandler(killTimeout time.Duration) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		hc := interp.HandlerCtx(ctx)
		path, err := interp.LookPathDir(hc.Dir, hc.Env, args[0])
		if err != nil {
			fmt.Fprintln(hc.Stderr, err)
			return interp.ExitStatus(127)
		}

		cmd := exec.Cmd{
			Path:        path,
			Args:        args,
			Dir:         hc.Dir,
			Env:         exportedEnv(hc.Env),
			Stdin:       hc.Stdin,
			Stdout:      hc.Stdout,
			Stderr:      hc.Stderr,
			SysProcAttr: &syscall.SysProcAttr{Setpgid: true},
		}

		if err := cmd.Start(); err != nil {
			fmt.Fprintln(hc.Stderr, err)
			return interp.ExitStatus(126)
		}
		pgid := cmd.Process.Pid

		restore := giveForeground(hc.Stdin, pgid)
		defer restore()

		waitDone := make(chan error, 1)
		go func() {
			waitDone <- cmd.Wait()
		}()

		select {
		case err := <-waitDone:
			return waitStatus(ctx, err)
		case <-ctx.Done():
			return waitStatus(ctx, stopGroup(pgid, killTimeout, waitDone))
		}
	}
}

// waitStatus converts the result of cmd.Wait into an exit status the runner
// understands. A child killed by a signal reports 128+signal, unless the kill
// came from cancellation, in which case the context error stops the runner.
func waitStatus(ctx context.Context, err error) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return interp.ExitStatus(128 + int(status.Signal()))
	}
	return interp.ExitStatus(exitErr.ExitCode())
}

// giveForeground makes pgid the terminal's foreground process group if stdin
// is a terminal, returning a function that restores the previous group.
func giveForeground(stdin any, pgid int) func() {
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}

	fd := int(f.Fd())
	previous, err := tcgetpgrp(fd)
	if err != nil {
		return func() {}
	}
	_ = tcsetpgrp(fd, pgid)

	return func() {
		if previous > 0 {
			_ = tcsetpgrp(fd, previous)
		}
	}
}

func stopGroup(pgid int, killTimeout time.Duration, waitDone <-chan error) error {
	if killTimeout < 0 {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		return <-waitDone
	}

	_ = syscall.Kill(-pgid, syscall.SIGINT)
	select {
	case err := <-waitDone:
		return err
	case <-time.After(killTimeout):
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		return <-waitDone
	}
}

func tcgetpgrp(fd int) (int, error) {
	var pgrp int32
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), syscall.TIOCGPGRP, uintptr(unsafe.Pointer(&pgrp)))
	if errno != 0 {
		return 0, errno
	}
	return int(pgrp), nil
}

func tcsetpgrp(fd int, pgrp int) error {
	pgrp32 := int32(pgrp)
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), syscall.TIOCSPGRP, uintptr(unsafe.Pointer(&pgrp32)))
	if errno != 0 {
		return errno
	}
	return nil
}

// exportedEnv flattens the exported variables of env for exec.Cmd.
func exportedEnv(env expand.Environ) []string {
	var result []string
	env.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported && vr.IsSet() {
			result = append(result, name+"="+vr.String())
		}
		return true
	})
	return result
}
