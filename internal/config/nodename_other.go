//go:build !unix

package config

import "os"

func nodeName() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown-node"
	}
	return host
}
