//go:build !unix

package toolkit

import "os/exec"

func setProcessGroup(*exec.Cmd) {}
