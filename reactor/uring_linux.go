//go:build linux

// File: reactor/uring_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// io_uring file backend. The submission side runs under a single mutex:
// ring full means the operation joins a pending FIFO that is drained every
// time the completion thread reaps a batch, so callers never observe
// SQ-full. The completion thread blocks in io_uring_enter(GETEVENTS),
// resolves each CQE to its continuation record, and fills it under the
// record mutex, which hands the result to the suspended awaiter. A NOP
// with zero user data is the shutdown sentinel.
//
// Kernel ABI constants and ring layout follow io_uring(7); only the small
// opcode set the reactor needs is wired.

package reactor

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/task"
)

const (
	sysIOURingSetup    = 425
	sysIOURingEnter    = 426
	sysIOURingRegister = 427

	uringOffSQRing = 0
	uringOffCQRing = 0x8000000
	uringOffSQEs   = 0x10000000

	uringEnterGetevents = 1 << 0

	uringFeatNodrop   = 1 << 1
	uringFeatRWCurPos = 1 << 3

	uringRegisterProbe = 8
	uringOpSupported   = 1 << 0

	uringOpNop    = 0
	uringOpOpenat = 18
	uringOpClose  = 19
	uringOpRead   = 22
	uringOpWrite  = 23

	// off value meaning "use the file's current position" (needs
	// IORING_FEAT_RW_CUR_POS).
	uringCurPos = ^uint64(0)
)

type sqRingOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	flags       uint32
	dropped     uint32
	array       uint32
	resv1       uint32
	resv2       uint64
}

type cqRingOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	overflow    uint32
	cqes        uint32
	flags       uint32
	resv1       uint32
	resv2       uint64
}

type uringParams struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFD         uint32
	resv         [3]uint32
	sqOff        sqRingOffsets
	cqOff        cqRingOffsets
}

type uringSQE struct {
	opcode      uint8
	flags       uint8
	ioprio      uint16
	fd          int32
	off         uint64
	addr        uint64
	len         uint32
	opFlags     uint32
	userData    uint64
	bufIndex    uint16
	personality uint16
	spliceFdIn  int32
	pad         [2]uint64
}

type uringCQE struct {
	userData uint64
	res      int32
	flags    uint32
}

type uringProbeOp struct {
	op    uint8
	resv  uint8
	flags uint16
	resv2 uint32
}

type uringProbe struct {
	lastOp uint8
	opsLen uint8
	resv   uint16
	resv2  [3]uint32
	ops    [256]uringProbeOp
}

// uringOp is one queued file operation: everything needed to build its
// SQE, plus the references that keep caller memory alive until the CQE.
type uringOp struct {
	c       *task.Completion
	opcode  uint8
	fd      int32
	addr    uint64
	length  uint32
	off     uint64
	opFlags uint32
	token   uint64

	keepBuf  []byte
	keepPath *byte
}

type uringFiles struct {
	ringFD int
	params uringParams

	sqMmap  []byte
	cqMmap  []byte
	sqeMmap []byte

	sqHead    *uint32
	sqTail    *uint32
	sqMask    uint32
	sqEntries uint32
	sqArray   []uint32

	cqHead *uint32
	cqTail *uint32
	cqMask uint32
	cqes   []uringCQE

	subMu      sync.Mutex
	nextToken  uint64
	inflight   map[uint64]*uringOp
	pendingSub *queue.Queue // FIFO of *uringOp waiting for SQ space
	stopped    bool

	loopDone chan struct{}
}

// newURingFiles probes the kernel and builds the backend. Returns
// (nil, nil) when io_uring exists but lacks the features the reactor
// needs, so the caller can fall back to the thread pool.
func newURingFiles(depth uint32) (*uringFiles, error) {
	u := &uringFiles{
		ringFD:     -1,
		inflight:   make(map[uint64]*uringOp),
		pendingSub: queue.New(),
		loopDone:   make(chan struct{}),
	}
	fd, _, errno := unix.Syscall(sysIOURingSetup, uintptr(depth),
		uintptr(unsafe.Pointer(&u.params)), 0)
	if errno != 0 {
		// ENOSYS and friends: no io_uring on this kernel.
		return nil, nil
	}
	u.ringFD = int(fd)

	if u.params.features&uringFeatNodrop == 0 ||
		u.params.features&uringFeatRWCurPos == 0 {
		unix.Close(u.ringFD)
		return nil, nil
	}
	if err := u.mapRings(); err != nil {
		unix.Close(u.ringFD)
		return nil, err
	}
	if !u.probeOpcodes() {
		u.unmapRings()
		unix.Close(u.ringFD)
		return nil, nil
	}
	return u, nil
}

func (u *uringFiles) name() string { return "io_uring" }

func (u *uringFiles) mapRings() error {
	p := &u.params
	sqSize := int(p.sqOff.array) + int(p.sqEntries)*4
	cqSize := int(p.cqOff.cqes) + int(p.cqEntries)*int(unsafe.Sizeof(uringCQE{}))
	sqeSize := int(p.sqEntries) * int(unsafe.Sizeof(uringSQE{}))

	var err error
	u.sqMmap, err = unix.Mmap(u.ringFD, uringOffSQRing, sqSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return api.WrapOS("mmap sq ring", err)
	}
	u.cqMmap, err = unix.Mmap(u.ringFD, uringOffCQRing, cqSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		u.unmapRings()
		return api.WrapOS("mmap cq ring", err)
	}
	u.sqeMmap, err = unix.Mmap(u.ringFD, uringOffSQEs, sqeSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		u.unmapRings()
		return api.WrapOS("mmap sqes", err)
	}

	sqBase := unsafe.Pointer(&u.sqMmap[0])
	u.sqHead = (*uint32)(unsafe.Add(sqBase, p.sqOff.head))
	u.sqTail = (*uint32)(unsafe.Add(sqBase, p.sqOff.tail))
	u.sqMask = *(*uint32)(unsafe.Add(sqBase, p.sqOff.ringMask))
	u.sqEntries = p.sqEntries
	u.sqArray = unsafe.Slice((*uint32)(unsafe.Add(sqBase, p.sqOff.array)),
		p.sqEntries)

	cqBase := unsafe.Pointer(&u.cqMmap[0])
	u.cqHead = (*uint32)(unsafe.Add(cqBase, p.cqOff.head))
	u.cqTail = (*uint32)(unsafe.Add(cqBase, p.cqOff.tail))
	u.cqMask = *(*uint32)(unsafe.Add(cqBase, p.cqOff.ringMask))
	u.cqes = unsafe.Slice((*uringCQE)(unsafe.Add(cqBase, p.cqOff.cqes)),
		p.cqEntries)
	return nil
}

func (u *uringFiles) unmapRings() {
	if u.sqeMmap != nil {
		unix.Munmap(u.sqeMmap)
		u.sqeMmap = nil
	}
	if u.cqMmap != nil {
		unix.Munmap(u.cqMmap)
		u.cqMmap = nil
	}
	if u.sqMmap != nil {
		unix.Munmap(u.sqMmap)
		u.sqMmap = nil
	}
}

// probeOpcodes verifies the kernel supports every opcode the reactor
// submits.
func (u *uringFiles) probeOpcodes() bool {
	var probe uringProbe
	_, _, errno := unix.Syscall6(sysIOURingRegister, uintptr(u.ringFD),
		uringRegisterProbe, uintptr(unsafe.Pointer(&probe)),
		uintptr(len(probe.ops)), 0, 0)
	if errno != 0 {
		return false
	}
	for _, op := range []uint8{uringOpNop, uringOpOpenat, uringOpClose,
		uringOpRead, uringOpWrite} {
		if op > probe.lastOp || probe.ops[op].flags&uringOpSupported == 0 {
			return false
		}
	}
	return true
}

func (u *uringFiles) start() error {
	go u.loop()
	return nil
}

func (u *uringFiles) stop() {
	u.subMu.Lock()
	if u.stopped {
		u.subMu.Unlock()
		return
	}
	u.stopped = true
	sentinel := &uringOp{opcode: uringOpNop}
	for !u.placeLocked(sentinel) {
		// SQ full of live submissions; give the completion thread a
		// chance to reap and retry.
		u.subMu.Unlock()
		runtime.Gosched()
		u.subMu.Lock()
	}
	u.flushLocked(1)
	u.subMu.Unlock()
	<-u.loopDone

	u.subMu.Lock()
	inflight := u.inflight
	u.inflight = make(map[uint64]*uringOp)
	var dropped []*uringOp
	for u.pendingSub.Length() > 0 {
		dropped = append(dropped, u.pendingSub.Remove().(*uringOp))
	}
	u.subMu.Unlock()

	for _, op := range inflight {
		op.c.Complete(0, api.ErrCancelled)
	}
	for _, op := range dropped {
		op.c.Complete(0, api.ErrCancelled)
	}
	u.unmapRings()
	unix.Close(u.ringFD)
}

// submit queues one operation, parking it on the pending FIFO when the
// submission ring is full.
func (u *uringFiles) submit(op *uringOp) error {
	u.subMu.Lock()
	defer u.subMu.Unlock()
	if u.stopped {
		return api.ErrReactorClosed
	}
	u.nextToken++
	op.token = u.nextToken
	u.inflight[op.token] = op
	if u.placeLocked(op) {
		u.flushLocked(1)
	} else {
		u.pendingSub.Add(op)
	}
	return nil
}

// placeLocked writes op's SQE into the ring. Caller holds subMu.
func (u *uringFiles) placeLocked(op *uringOp) bool {
	head := atomic.LoadUint32(u.sqHead)
	tail := *u.sqTail
	if tail-head == u.sqEntries {
		return false
	}
	idx := tail & u.sqMask
	sqe := (*uringSQE)(unsafe.Pointer(
		&u.sqeMmap[uintptr(idx)*unsafe.Sizeof(uringSQE{})]))
	*sqe = uringSQE{
		opcode:   op.opcode,
		fd:       op.fd,
		off:      op.off,
		addr:     op.addr,
		len:      op.length,
		opFlags:  op.opFlags,
		userData: op.token,
	}
	u.sqArray[idx] = idx
	atomic.StoreUint32(u.sqTail, tail+1)
	return true
}

// flushLocked tells the kernel about n freshly placed SQEs.
func (u *uringFiles) flushLocked(n uint32) {
	for {
		_, _, errno := unix.Syscall6(sysIOURingEnter, uintptr(u.ringFD),
			uintptr(n), 0, 0, 0, 0)
		if errno == unix.EINTR {
			continue
		}
		return
	}
}

// drainPending moves queued operations into freed SQ slots. Called by the
// completion thread after each reaped batch.
func (u *uringFiles) drainPending() {
	u.subMu.Lock()
	placed := uint32(0)
	for u.pendingSub.Length() > 0 {
		op := u.pendingSub.Peek().(*uringOp)
		if !u.placeLocked(op) {
			break
		}
		u.pendingSub.Remove()
		placed++
	}
	if placed > 0 {
		u.flushLocked(placed)
	}
	u.subMu.Unlock()
}

// loop is the completion thread.
func (u *uringFiles) loop() {
	defer close(u.loopDone)
	for {
		_, _, errno := unix.Syscall6(sysIOURingEnter, uintptr(u.ringFD),
			0, 1, uringEnterGetevents, 0, 0)
		if errno == unix.EINTR {
			continue
		}
		if errno != 0 {
			return
		}
		for {
			head := *u.cqHead
			tail := atomic.LoadUint32(u.cqTail)
			if head == tail {
				break
			}
			cqe := u.cqes[head&u.cqMask]
			atomic.StoreUint32(u.cqHead, head+1)
			if cqe.userData == 0 {
				return
			}
			u.reap(cqe)
		}
		u.drainPending()
	}
}

// reap resolves one CQE and fills its continuation record. The record's
// mutex is the fence between this thread and the resumed awaiter.
func (u *uringFiles) reap(cqe uringCQE) {
	u.subMu.Lock()
	op, ok := u.inflight[cqe.userData]
	delete(u.inflight, cqe.userData)
	u.subMu.Unlock()
	if !ok {
		return
	}
	var n int
	var err error
	if cqe.res < 0 {
		err = api.WrapOS(opName(op.opcode), unix.Errno(-cqe.res))
	} else {
		n = int(cqe.res)
	}
	op.c.Complete(n, err)
}

func opName(op uint8) string {
	switch op {
	case uringOpOpenat:
		return "openat"
	case uringOpClose:
		return "close"
	case uringOpRead:
		return "read"
	case uringOpWrite:
		return "write"
	}
	return "io_uring"
}

func (u *uringFiles) open(path string, flags int, mode uint32, c *task.Completion) error {
	cpath, err := unix.BytePtrFromString(path)
	if err != nil {
		return api.WrapOS("open "+path, err)
	}
	return u.submit(&uringOp{
		c:        c,
		opcode:   uringOpOpenat,
		fd:       unix.AT_FDCWD,
		addr:     uint64(uintptr(unsafe.Pointer(cpath))),
		length:   mode,
		opFlags:  uint32(flags | unix.O_CLOEXEC),
		keepPath: cpath,
	})
}

func (u *uringFiles) closeFD(fd int, c *task.Completion) error {
	return u.submit(&uringOp{c: c, opcode: uringOpClose, fd: int32(fd)})
}

func (u *uringFiles) read(fd int, p []byte, c *task.Completion) error {
	return u.submit(&uringOp{
		c:       c,
		opcode:  uringOpRead,
		fd:      int32(fd),
		addr:    bufAddr(p),
		length:  uint32(len(p)),
		off:     uringCurPos,
		keepBuf: p,
	})
}

func (u *uringFiles) pread(fd int, p []byte, off int64, c *task.Completion) error {
	return u.submit(&uringOp{
		c:       c,
		opcode:  uringOpRead,
		fd:      int32(fd),
		addr:    bufAddr(p),
		length:  uint32(len(p)),
		off:     uint64(off),
		keepBuf: p,
	})
}

func (u *uringFiles) write(fd int, p []byte, c *task.Completion) error {
	return u.submit(&uringOp{
		c:       c,
		opcode:  uringOpWrite,
		fd:      int32(fd),
		addr:    bufAddr(p),
		length:  uint32(len(p)),
		off:     uringCurPos,
		keepBuf: p,
	})
}

func (u *uringFiles) pwrite(fd int, p []byte, off int64, c *task.Completion) error {
	return u.submit(&uringOp{
		c:       c,
		opcode:  uringOpWrite,
		fd:      int32(fd),
		addr:    bufAddr(p),
		length:  uint32(len(p)),
		off:     uint64(off),
		keepBuf: p,
	})
}

func bufAddr(p []byte) uint64 {
	if len(p) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&p[0])))
}
