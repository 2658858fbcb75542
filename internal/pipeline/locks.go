package pipeline

import "sync"

// dirLocks hands out one mutex per directory path. Aggregate updates
// for records in the same directory must serialize even when file
// processing itself runs concurrently; files in different directories
// never contend.
type dirLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (d *dirLocks) get(dir string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locks == nil {
		d.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := d.locks[dir]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[dir] = lock
	}
	return lock
}
