// Author: KleaSCM
// Email: KleaSCM@gmail.com
// File: target.go
// Description: Small file-parsing target for trying the fuzzer end to end. Reads a JPEG-like
// segment header and dies with SIGSEGV on a length field no real parser should trust.

package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ParseSegment is the function under test. It reports true for inputs that
// would send a naive parser past the end of its buffer.
func ParseSegment(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if data[0] != 0xFF || data[1] != 0xD8 {
		return false
	}
	length := int(binary.LittleEndian.Uint16(data[4:6]))
	if length >= 0x7FFF {
		return true
	}
	if binary.LittleEndian.Uint32(data[6:10]) == 0xFFFFFFFF {
		return true
	}
	return false
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: target <inputfile>")
		os.Exit(1)
	}
	input, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to read input:", err)
		os.Exit(1)
	}
	if ParseSegment(input) {
		// the Go runtime intercepts SIGSEGV, so the process image is replaced by sh which dies by it
		if err := unix.Exec("/bin/sh", []string{"sh", "-c", "kill -SEGV $$"}, os.Environ()); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to crash:", err)
			os.Exit(1)
		}
	}
}
