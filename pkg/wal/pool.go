package wal

import "sync"

// bufferPool reuses the scratch buffers ReadEntry decodes payloads into,
// to keep steady-state recovery and replay off the allocator.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 4096)
		return &buf
	},
}

func acquireBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

func releaseBuffer(buf *[]byte) {
	*buf = (*buf)[:0]
	bufferPool.Put(buf)
}
