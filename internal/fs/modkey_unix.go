//go:build darwin || freebsd || linux

package fs

import (
	"time"

	"golang.org/x/sys/unix"
)

// Uses the raw stat result so the inode and owner are part of the key
func modKey(path string) (ModKey, error) {
	stat := unix.Stat_t{}
	if err := unix.Stat(path, &stat); err != nil {
		return ModKey{}, err
	}

	sec, nsec := stat.Mtim.Unix()
	if err := checkModTime(time.Unix(sec, nsec)); err != nil {
		return ModKey{}, err
	}

	return ModKey{
		inode:     stat.Ino,
		size:      stat.Size,
		mtimeSec:  sec,
		mtimeNsec: nsec,
		mode:      uint32(stat.Mode),
		uid:       stat.Uid,
	}, nil
}
