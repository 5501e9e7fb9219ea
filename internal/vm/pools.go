package vm

import (
	"sync"
)

// ============================================================================
// sync.Pool 复用调用参数切片
// ============================================================================
//
// 每次 invoke* 都要把实参从操作数栈收集到一个临时切片，再复制进新帧的局部变量表。
// 临时切片在帧创建后即可归还。

// 小参数切片池（容量 4）
var smallArgsPool = sync.Pool{
	New: func() interface{} {
		arr := make([]Value, 0, 4)
		return &arr
	},
}

// 大参数切片池（容量 16）
var largeArgsPool = sync.Pool{
	New: func() interface{} {
		arr := make([]Value, 0, 16)
		return &arr
	},
}

// getArgs 取得长度为 size 的参数切片
func getArgs(size int) []Value {
	var ptr *[]Value
	switch {
	case size <= 4:
		ptr = smallArgsPool.Get().(*[]Value)
	case size <= 16:
		ptr = largeArgsPool.Get().(*[]Value)
	default:
		return make([]Value, size)
	}
	return (*ptr)[:size]
}

// putArgs 归还参数切片
func putArgs(args []Value) {
	c := cap(args)
	if c != 4 && c != 16 {
		return
	}
	for i := range args {
		args[i] = Value{}
	}
	args = args[:0]
	if c == 4 {
		smallArgsPool.Put(&args)
	} else {
		largeArgsPool.Put(&args)
	}
}
