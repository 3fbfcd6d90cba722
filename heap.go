package jsbind

// HeapStatistics is a snapshot of the isolate heap, in bytes unless noted.
type HeapStatistics struct {
	TotalHeapSize            uint64
	TotalHeapSizeExecutable  uint64
	TotalPhysicalSize        uint64
	TotalAvailableSize       uint64
	UsedHeapSize             uint64
	HeapSizeLimit            uint64
	MallocedMemory           uint64
	ExternalMemory           uint64
	PeakMallocedMemory       uint64
	NumberOfNativeContexts   uint64 // count
	NumberOfDetachedContexts uint64 // count
}

// HeapStatistics reports the runtime's heap usage.
func (r *Runtime[S]) HeapStatistics() (HeapStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return HeapStatistics{}, ErrRuntimeClosed
	}
	st := r.iso.GetHeapStatistics()
	return HeapStatistics{
		TotalHeapSize:            st.TotalHeapSize,
		TotalHeapSizeExecutable:  st.TotalHeapSizeExecutable,
		TotalPhysicalSize:        st.TotalPhysicalSize,
		TotalAvailableSize:       st.TotalAvailableSize,
		UsedHeapSize:             st.UsedHeapSize,
		HeapSizeLimit:            st.HeapSizeLimit,
		MallocedMemory:           st.MallocedMemory,
		ExternalMemory:           st.ExternalMemory,
		PeakMallocedMemory:       st.PeakMallocedMemory,
		NumberOfNativeContexts:   st.NumberOfNativeContexts,
		NumberOfDetachedContexts: st.NumberOfDetachedContexts,
	}, nil
}
