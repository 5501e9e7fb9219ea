package classfile

import (
	"bytes"
	"encoding/binary"

	"github.com/tangzhangming/javm/internal/errors"
)

// ============================================================================
// 写入器
// ============================================================================

// ByteWriter 大端序字节写入器
type ByteWriter struct {
	buf bytes.Buffer
}

// NewByteWriter 创建新的字节写入器
func NewByteWriter() *ByteWriter {
	return &ByteWriter{}
}

// Write 实现 io.Writer
func (w *ByteWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// WriteU8 写入无符号字节
func (w *ByteWriter) WriteU8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteU16 写入无符号短整型 (大端序)
func (w *ByteWriter) WriteU16(v uint16) {
	binary.Write(&w.buf, binary.BigEndian, v)
}

// WriteU32 写入无符号整型 (大端序)
func (w *ByteWriter) WriteU32(v uint32) {
	binary.Write(&w.buf, binary.BigEndian, v)
}

// WriteBytes 写入字节数组
func (w *ByteWriter) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// Bytes 返回字节数组
func (w *ByteWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// Len 返回当前长度
func (w *ByteWriter) Len() int {
	return w.buf.Len()
}

// ============================================================================
// 读取器
// ============================================================================

// ByteReader 大端序字节读取器，越界后记录错误并返回零值
type ByteReader struct {
	data []byte
	pos  int
	err  error
}

// NewByteReader 创建字节读取器
func NewByteReader(data []byte) *ByteReader {
	return &ByteReader{data: data}
}

func (r *ByteReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.err = errors.NewClassError(errors.C0003, r.pos, n)
		return false
	}
	return true
}

// ReadU8 读取无符号字节
func (r *ByteReader) ReadU8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

// ReadU16 读取无符号短整型
func (r *ByteReader) ReadU16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

// ReadU32 读取无符号整型
func (r *ByteReader) ReadU32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

// ReadBytes 读取 n 个字节 (返回副本)
func (r *ByteReader) ReadBytes(n int) []byte {
	if n < 0 || !r.need(n) {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out
}

// Pos 当前偏移
func (r *ByteReader) Pos() int { return r.pos }

// Err 返回第一个读取错误
func (r *ByteReader) Err() error { return r.err }

// ============================================================================
// 字节码操作数解码
// ============================================================================

// U16At 读取 code[i:i+2] 的大端无符号值
func U16At(code []byte, i int) uint16 {
	return uint16(code[i])<<8 | uint16(code[i+1])
}

// S16At 读取 code[i:i+2] 的大端有符号值
func S16At(code []byte, i int) int16 {
	return int16(U16At(code, i))
}

// S32At 读取 code[i:i+4] 的大端有符号值
func S32At(code []byte, i int) int32 {
	return int32(uint32(code[i])<<24 | uint32(code[i+1])<<16 | uint32(code[i+2])<<8 | uint32(code[i+3]))
}
