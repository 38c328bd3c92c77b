//go:build !darwin && !freebsd && !linux

package fs

import "os"

func modKey(path string) (ModKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ModKey{}, err
	}

	mtime := info.ModTime()
	if err := checkModTime(mtime); err != nil {
		return ModKey{}, err
	}

	return ModKey{
		size:      info.Size(),
		mtimeSec:  mtime.Unix(),
		mtimeNsec: int64(mtime.Nanosecond()),
		mode:      uint32(info.Mode()),
	}, nil
}
