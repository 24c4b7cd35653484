// Package iopread contains a Go-defined host module that lets WebAssembly
// guests perform positioned reads on host files.
//
// The module is named "io_pread" and exports a single function, "pread":
//
//	(import "io_pread" "pread"
//	  (func $pread (param $fd i32) (param $length i64) (param $offset i64)
//	    (param $result.buf i32) (param $result.size i32) (param $result.errno i32)
//	    (result (;status;) i32)))
//
// A negative $length reads to the end of the file and a negative $offset reads
// from the current file offset. See Status for how results are reported.
//
// # Descriptors
//
// Guests cannot name arbitrary host descriptors. Only handles registered with
// FunctionExporter.WithHandle are readable, under the guest fd given there.
//
// # Buffers
//
// Data is written into guest memory allocated by calling a function the guest
// exports, "malloc" unless FunctionExporter.WithAllocator says otherwise. It
// takes a size (i32) and returns a pointer (i32), zero meaning failure. The
// guest owns the buffer when the status is data.
//
// When a read allocates but then reports no data, for example at end of file
// or on a read error, the buffer is passed back to the guest's "free" export
// (see FunctionExporter.WithDeallocator). It takes the pointer (i32) and
// returns nothing. Guests that don't export it leak such buffers.
package iopread

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/iopread/pread"
)

const (
	// ModuleName is the module name guests import pread from.
	ModuleName = "io_pread"

	// PreadName is the name of the exported pread function.
	PreadName = "pread"

	// DefaultAllocatorName is the guest export used to allocate buffers.
	DefaultAllocatorName = "malloc"

	// DefaultDeallocatorName is the guest export used to free buffers that
	// were allocated for a read that returned no data.
	DefaultDeallocatorName = "free"
)

const i32, i64 = api.ValueTypeI32, api.ValueTypeI64

// MustInstantiate calls Instantiate or panics on error.
//
// This is a simpler function for those who know the module "io_pread" is not
// already instantiated, and don't need to unload it.
func MustInstantiate(ctx context.Context, r wazero.Runtime) {
	if _, err := Instantiate(ctx, r); err != nil {
		panic(err)
	}
}

// Instantiate instantiates the "io_pread" module into the runtime with no
// handles registered, so every read fails with EBADF.
//
// # Notes
//
//   - Failure cases are documented on wazero.Runtime InstantiateModule.
//   - Closing the wazero.Runtime has the same effect as closing the result.
//   - To register handles, use FunctionExporter.
func Instantiate(ctx context.Context, r wazero.Runtime) (api.Closer, error) {
	return NewFunctionExporter().Instantiate(ctx, r)
}

// FunctionExporter configures the functions in the "io_pread" module.
//
// Each With method returns a copy, so an exporter can be shared as a base
// configuration.
type FunctionExporter interface {
	// WithHandle makes h readable by the guest as fd. The caller keeps
	// ownership of h and must keep it open while the guest runs.
	WithHandle(fd uint32, h pread.Handle) FunctionExporter

	// WithAllocator sets the name of the guest export that allocates result
	// buffers. Defaults to DefaultAllocatorName.
	WithAllocator(name string) FunctionExporter

	// WithDeallocator sets the name of the guest export that frees a buffer
	// when a read returns no data. Defaults to DefaultDeallocatorName. An
	// empty name never frees.
	WithDeallocator(name string) FunctionExporter

	// WithMaxBufferSize limits a single read to size bytes. Larger reads fail
	// with StatusOutOfMemory before the guest allocator is called. Zero means
	// no limit beyond guest memory.
	WithMaxBufferSize(size uint32) FunctionExporter

	// WithLogger sets the logger for debug output. Defaults to
	// logrus.StandardLogger().
	WithLogger(logger logrus.FieldLogger) FunctionExporter

	// ExportFunctions builds functions to export with a
	// wazero.HostModuleBuilder named "io_pread".
	ExportFunctions(wazero.HostModuleBuilder)

	// Instantiate builds and instantiates the "io_pread" module.
	Instantiate(context.Context, wazero.Runtime) (api.Closer, error)
}

// NewFunctionExporter returns a FunctionExporter with no handles.
func NewFunctionExporter() FunctionExporter {
	return &functionExporter{
		handles:         map[uint32]pread.Handle{},
		allocatorName:   DefaultAllocatorName,
		deallocatorName: DefaultDeallocatorName,
		logger:          logrus.StandardLogger(),
	}
}

type functionExporter struct {
	handles         map[uint32]pread.Handle
	allocatorName   string
	deallocatorName string
	maxBufferSize   uint32
	logger          logrus.FieldLogger
}

func (e *functionExporter) clone() *functionExporter {
	ret := *e
	ret.handles = make(map[uint32]pread.Handle, len(e.handles))
	for fd, h := range e.handles {
		ret.handles[fd] = h
	}
	return &ret
}

// WithHandle implements FunctionExporter.WithHandle
func (e *functionExporter) WithHandle(fd uint32, h pread.Handle) FunctionExporter {
	ret := e.clone()
	ret.handles[fd] = h
	return ret
}

// WithAllocator implements FunctionExporter.WithAllocator
func (e *functionExporter) WithAllocator(name string) FunctionExporter {
	ret := e.clone()
	ret.allocatorName = name
	return ret
}

// WithDeallocator implements FunctionExporter.WithDeallocator
func (e *functionExporter) WithDeallocator(name string) FunctionExporter {
	ret := e.clone()
	ret.deallocatorName = name
	return ret
}

// WithMaxBufferSize implements FunctionExporter.WithMaxBufferSize
func (e *functionExporter) WithMaxBufferSize(size uint32) FunctionExporter {
	ret := e.clone()
	ret.maxBufferSize = size
	return ret
}

// WithLogger implements FunctionExporter.WithLogger
func (e *functionExporter) WithLogger(logger logrus.FieldLogger) FunctionExporter {
	ret := e.clone()
	ret.logger = logger
	return ret
}

// ExportFunctions implements FunctionExporter.ExportFunctions
func (e *functionExporter) ExportFunctions(builder wazero.HostModuleBuilder) {
	h := &preadHost{
		handles:         e.clone().handles,
		allocatorName:   e.allocatorName,
		deallocatorName: e.deallocatorName,
		maxBufferSize:   e.maxBufferSize,
		logger:          e.logger,
		reader:          pread.NewReader(pread.WithLogger(e.logger)),
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(h.pread), []api.ValueType{i32, i64, i64, i32, i32, i32}, []api.ValueType{i32}).
		WithParameterNames("fd", "length", "offset", "result.buf", "result.size", "result.errno").
		WithResultNames("status").
		Export(PreadName)
}

// Instantiate implements FunctionExporter.Instantiate
func (e *functionExporter) Instantiate(ctx context.Context, r wazero.Runtime) (api.Closer, error) {
	builder := r.NewHostModuleBuilder(ModuleName)
	e.ExportFunctions(builder)
	return builder.Instantiate(ctx)
}

type preadHost struct {
	handles         map[uint32]pread.Handle
	allocatorName   string
	deallocatorName string
	maxBufferSize   uint32
	logger          logrus.FieldLogger
	reader          *pread.Reader
}

// pread implements PreadName.
func (h *preadHost) pread(ctx context.Context, mod api.Module, stack []uint64) {
	fd := uint32(stack[0])
	length := int64(stack[1])
	offset := int64(stack[2])
	resultBuf := uint32(stack[3])
	resultSize := uint32(stack[4])
	resultErrno := uint32(stack[5])

	if mod.Memory() == nil {
		panic(errors.New("io_pread: module has no memory"))
	}

	status, errno := h.call(ctx, mod, fd, length, offset, resultBuf, resultSize)
	if errno != 0 {
		if !mod.Memory().WriteUint32Le(resultErrno, uint32(errno)) {
			panic(fmt.Errorf("out of memory writing errno to %d", resultErrno))
		}
	}
	stack[0] = uint64(status)
}

func (h *preadHost) call(ctx context.Context, mod api.Module, fd uint32, length, offset int64, resultBuf, resultSize uint32) (Status, syscall.Errno) {
	if length == 0 {
		return StatusEmpty, 0
	}

	handle, ok := h.handles[fd]
	if !ok {
		h.logger.WithField("fd", fd).Debug("pread on unregistered fd")
		return StatusReadFailed, syscall.EBADF
	}

	alloc := &guestAllocator{mod: mod, name: h.allocatorName, freeName: h.deallocatorName, max: h.maxBufferSize}
	o := h.reader.ReadWith(ctx, handle, length, offset, alloc)
	switch o.Kind() {
	case pread.KindEmpty:
		h.release(ctx, alloc, fd)
		return StatusEmpty, 0
	case pread.KindAgain:
		h.release(ctx, alloc, fd)
		return StatusAgain, 0
	case pread.KindError:
		h.release(ctx, alloc, fd)
		e := o.Failure()
		return statusOf(e.Kind), e.Errno
	}

	mem := mod.Memory()
	if !mem.WriteUint32Le(resultBuf, alloc.ptr) || !mem.WriteUint32Le(resultSize, uint32(len(o.Data()))) {
		h.release(ctx, alloc, fd)
		return StatusReadFailed, syscall.EFAULT
	}
	return StatusData, 0
}

// release frees a buffer the guest will never see. Failure leaks the buffer
// but doesn't change the status already decided.
func (h *preadHost) release(ctx context.Context, alloc *guestAllocator, fd uint32) {
	if err := alloc.release(ctx); err != nil {
		h.logger.WithField("fd", fd).Debugf("leaking guest buffer: %v", err)
	}
}
