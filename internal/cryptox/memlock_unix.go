//go:build linux || darwin

package cryptox

import "golang.org/x/sys/unix"

// allocKey maps private anonymous pages for one n-byte key, so unlocking one
// key never unpins another. locked is false when mlock fails, as under a low
// RLIMIT_MEMLOCK; the pages are still usable.
func allocKey(n int) (mem []byte, locked bool, err error) {
	page := unix.Getpagesize()
	size := (n + page - 1) / page * page
	mem, err = unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, false, err
	}
	return mem, unix.Mlock(mem) == nil, nil
}

func freeKey(mem []byte, locked bool) {
	if locked {
		_ = unix.Munlock(mem)
	}
	_ = unix.Munmap(mem)
}
