package vm

// ============================================================================
// 堆
// ============================================================================

// Heap 只追加的对象仓库，对象在进程生命周期内不回收，Ref 永久有效
type Heap struct {
	objects []Object
}

// NewHeap 创建空堆
func NewHeap() *Heap {
	return &Heap{objects: make([]Object, 0, 64)}
}

// Alloc 登记对象并返回句柄
func (h *Heap) Alloc(obj Object) Ref {
	h.objects = append(h.objects, obj)
	return Ref(len(h.objects))
}

// Get 返回句柄对应的对象，null 或非法句柄返回 nil
func (h *Heap) Get(r Ref) Object {
	if r == Null || int(r) > len(h.objects) {
		return nil
	}
	return h.objects[r-1]
}

// Len 已分配对象数
func (h *Heap) Len() int {
	return len(h.objects)
}
