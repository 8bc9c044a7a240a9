package logging

import (
	"bytes"
	"sync"
)

// maxPooledBuffer 超过该容量的 buffer 不再归还，避免单条超长日志长期占用内存
const maxPooledBuffer = 64 << 10

// bufferPool 格式化器共用的字节缓冲池
type bufferPool struct {
	pool sync.Pool
}

func newBufferPool() *bufferPool {
	return &bufferPool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, 256))
			},
		},
	}
}

func (p *bufferPool) get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *bufferPool) put(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

// detach 复制 buffer 内容。AsyncWriter 在另一个协程写入，格式化结果不能引用池中的内存。
func detach(b *bytes.Buffer) []byte {
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out
}

var buffers = newBufferPool()
