//go:build unix

package config

import (
	"os"

	"golang.org/x/sys/unix"
)

func nodeName() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		if name := unix.ByteSliceToString(uts.Nodename[:]); name != "" {
			return name
		}
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown-node"
	}
	return host
}
