// File: channel/filechannel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// File channels. Six shapes over one shared base, mirroring the medium's
// access patterns: sequential read, sequential write, sequential
// read-write, and the direct-access triple. Sequential shapes keep
// independent read and write cursors that advance only on success.

package channel

import (
	"github.com/momentics/hioload-aio/api"
	"github.com/momentics/hioload-aio/reactor"
	"github.com/momentics/hioload-aio/task"
)

// fileBase carries the descriptor and cursor state shared by all shapes.
type fileBase struct {
	r        *reactor.Reactor
	fd       int
	opened   bool
	appendTo bool
	rpos     int64
	wpos     int64
}

func (b *fileBase) IsOpen() bool { return b.opened }

func (b *fileBase) openPath(r *reactor.Reactor, path string, f FileFlag, shape shapeAccess) error {
	if b.opened {
		return api.ErrChannelAlreadyOpen
	}
	ff, err := normalizeFlags(f, shape)
	if err != nil {
		return err
	}
	fd, err := sysOpenFile(r, path, ff)
	if err != nil {
		return err
	}
	b.r = r
	b.fd = fd
	b.opened = true
	b.appendTo = ff&FlagAppend != 0
	b.rpos, b.wpos = 0, 0
	return nil
}

func (b *fileBase) asyncOpenPath(r *reactor.Reactor, path string, f FileFlag, shape shapeAccess) *task.Task[struct{}] {
	return task.New(func() (struct{}, error) {
		if b.opened {
			return struct{}{}, api.ErrChannelAlreadyOpen
		}
		ff, err := normalizeFlags(f, shape)
		if err != nil {
			return struct{}{}, err
		}
		fd, err := task.Await(r.AsyncOpen(path, osOpenFlags(ff), 0o666))
		if err != nil {
			return struct{}{}, err
		}
		b.r = r
		b.fd = fd
		b.opened = true
		b.appendTo = ff&FlagAppend != 0
		b.rpos, b.wpos = 0, 0
		return struct{}{}, nil
	})
}

func (b *fileBase) close() error {
	if !b.opened {
		return api.ErrChannelNotOpen
	}
	b.opened = false
	return sysCloseFile(b.r, b.fd)
}

func (b *fileBase) asyncClose() *task.Task[struct{}] {
	return task.New(func() (struct{}, error) {
		if !b.opened {
			return struct{}{}, api.ErrChannelNotOpen
		}
		b.opened = false
		_, err := task.Await(b.r.AsyncClose(b.fd))
		return struct{}{}, err
	})
}

/*
 * Direct access. Reads of zero bytes at a valid offset mean the medium is
 * exhausted there, canonicalized to ErrEndOfFile so success counts stay
 * strictly positive.
 */

func (b *fileBase) readSomeAt(off int64, p []byte) (int, error) {
	if !b.opened {
		return 0, api.ErrChannelNotOpen
	}
	n, err := sysPreadFile(b.r, b.fd, p, off)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, api.ErrEndOfFile
	}
	return n, nil
}

func (b *fileBase) asyncReadSomeAt(off int64, p []byte) *task.Task[int] {
	return task.New(func() (int, error) {
		if !b.opened {
			return 0, api.ErrChannelNotOpen
		}
		n, err := task.Await(b.r.AsyncPread(b.fd, p, off))
		if err != nil {
			return 0, err
		}
		if n == 0 && len(p) > 0 {
			return 0, api.ErrEndOfFile
		}
		return n, nil
	})
}

func (b *fileBase) writeSomeAt(off int64, p []byte) (int, error) {
	if !b.opened {
		return 0, api.ErrChannelNotOpen
	}
	return sysPwriteFile(b.r, b.fd, p, off)
}

func (b *fileBase) asyncWriteSomeAt(off int64, p []byte) *task.Task[int] {
	return task.New(func() (int, error) {
		if !b.opened {
			return 0, api.ErrChannelNotOpen
		}
		return task.Await(b.r.AsyncPwrite(b.fd, p, off))
	})
}

/*
 * Sequential access over the direct primitives, cursor advanced on
 * success only. Append-mode writes go through the descriptor so the OS
 * forces each write to end-of-file.
 */

func (b *fileBase) readSome(p []byte) (int, error) {
	n, err := b.readSomeAt(b.rpos, p)
	if err != nil {
		return 0, err
	}
	b.rpos += int64(n)
	return n, nil
}

func (b *fileBase) asyncReadSome(p []byte) *task.Task[int] {
	return task.New(func() (int, error) {
		n, err := task.Await(b.asyncReadSomeAt(b.rpos, p))
		if err != nil {
			return 0, err
		}
		b.rpos += int64(n)
		return n, nil
	})
}

func (b *fileBase) writeSome(p []byte) (int, error) {
	if b.appendTo {
		if !b.opened {
			return 0, api.ErrChannelNotOpen
		}
		return sysWriteFile(b.r, b.fd, p)
	}
	n, err := b.writeSomeAt(b.wpos, p)
	if err != nil {
		return 0, err
	}
	b.wpos += int64(n)
	return n, nil
}

func (b *fileBase) asyncWriteSome(p []byte) *task.Task[int] {
	return task.New(func() (int, error) {
		if b.appendTo {
			if !b.opened {
				return 0, api.ErrChannelNotOpen
			}
			return task.Await(b.r.AsyncWrite(b.fd, p))
		}
		n, err := task.Await(b.asyncWriteSomeAt(b.wpos, p))
		if err != nil {
			return 0, err
		}
		b.wpos += int64(n)
		return n, nil
	})
}

/*************************************************************************
 *
 * SeqReadFile: a sequential channel that reads from a file.
 */

type SeqReadFile struct {
	b fileBase
}

var _ api.SeqReadChannel = (*SeqReadFile)(nil)

var seqReadShape = shapeAccess{read: true, sequential: true}

// NewSeqReadFile creates a closed sequential read channel.
func NewSeqReadFile() *SeqReadFile { return &SeqReadFile{} }

func (c *SeqReadFile) Open(r *reactor.Reactor, path string, f FileFlag) error {
	return c.b.openPath(r, path, f, seqReadShape)
}

func (c *SeqReadFile) AsyncOpen(r *reactor.Reactor, path string, f FileFlag) *task.Task[struct{}] {
	return c.b.asyncOpenPath(r, path, f, seqReadShape)
}

func (c *SeqReadFile) IsOpen() bool { return c.b.IsOpen() }
func (c *SeqReadFile) Close() error { return c.b.close() }
func (c *SeqReadFile) AsyncClose() *task.Task[struct{}] { return c.b.asyncClose() }
func (c *SeqReadFile) ReadSome(p []byte) (int, error) { return c.b.readSome(p) }
func (c *SeqReadFile) AsyncReadSome(p []byte) *task.Task[int] { return c.b.asyncReadSome(p) }

/*************************************************************************
 *
 * SeqWriteFile: a sequential channel that writes to a file.
 */

type SeqWriteFile struct {
	b fileBase
}

var _ api.SeqWriteChannel = (*SeqWriteFile)(nil)

var seqWriteShape = shapeAccess{write: true, sequential: true}

// NewSeqWriteFile creates a closed sequential write channel.
func NewSeqWriteFile() *SeqWriteFile { return &SeqWriteFile{} }

func (c *SeqWriteFile) Open(r *reactor.Reactor, path string, f FileFlag) error {
	return c.b.openPath(r, path, f, seqWriteShape)
}

func (c *SeqWriteFile) AsyncOpen(r *reactor.Reactor, path string, f FileFlag) *task.Task[struct{}] {
	return c.b.asyncOpenPath(r, path, f, seqWriteShape)
}

func (c *SeqWriteFile) IsOpen() bool { return c.b.IsOpen() }
func (c *SeqWriteFile) Close() error { return c.b.close() }
func (c *SeqWriteFile) AsyncClose() *task.Task[struct{}] { return c.b.asyncClose() }
func (c *SeqWriteFile) WriteSome(p []byte) (int, error) { return c.b.writeSome(p) }
func (c *SeqWriteFile) AsyncWriteSome(p []byte) *task.Task[int] { return c.b.asyncWriteSome(p) }

/*************************************************************************
 *
 * SeqFile: a sequential read-write channel with independent cursors.
 */

type SeqFile struct {
	b fileBase
}

var _ api.SeqChannel = (*SeqFile)(nil)

var seqShape = shapeAccess{read: true, write: true, sequential: true}

// NewSeqFile creates a closed sequential read-write channel.
func NewSeqFile() *SeqFile { return &SeqFile{} }

func (c *SeqFile) Open(r *reactor.Reactor, path string, f FileFlag) error {
	return c.b.openPath(r, path, f, seqShape)
}

func (c *SeqFile) AsyncOpen(r *reactor.Reactor, path string, f FileFlag) *task.Task[struct{}] {
	return c.b.asyncOpenPath(r, path, f, seqShape)
}

func (c *SeqFile) IsOpen() bool { return c.b.IsOpen() }
func (c *SeqFile) Close() error { return c.b.close() }
func (c *SeqFile) AsyncClose() *task.Task[struct{}] { return c.b.asyncClose() }
func (c *SeqFile) ReadSome(p []byte) (int, error) { return c.b.readSome(p) }
func (c *SeqFile) AsyncReadSome(p []byte) *task.Task[int] { return c.b.asyncReadSome(p) }
func (c *SeqFile) WriteSome(p []byte) (int, error) { return c.b.writeSome(p) }
func (c *SeqFile) AsyncWriteSome(p []byte) *task.Task[int] { return c.b.asyncWriteSome(p) }

/*************************************************************************
 *
 * DirectReadFile: a direct-access channel that reads from a file.
 */

type DirectReadFile struct {
	b fileBase
}

var _ api.DirectReadChannel = (*DirectReadFile)(nil)

var directReadShape = shapeAccess{read: true}

// NewDirectReadFile creates a closed direct-access read channel.
func NewDirectReadFile() *DirectReadFile { return &DirectReadFile{} }

func (c *DirectReadFile) Open(r *reactor.Reactor, path string, f FileFlag) error {
	return c.b.openPath(r, path, f, directReadShape)
}

func (c *DirectReadFile) AsyncOpen(r *reactor.Reactor, path string, f FileFlag) *task.Task[struct{}] {
	return c.b.asyncOpenPath(r, path, f, directReadShape)
}

func (c *DirectReadFile) IsOpen() bool { return c.b.IsOpen() }
func (c *DirectReadFile) Close() error { return c.b.close() }
func (c *DirectReadFile) AsyncClose() *task.Task[struct{}] { return c.b.asyncClose() }

func (c *DirectReadFile) ReadSomeAt(off int64, p []byte) (int, error) {
	return c.b.readSomeAt(off, p)
}

func (c *DirectReadFile) AsyncReadSomeAt(off int64, p []byte) *task.Task[int] {
	return c.b.asyncReadSomeAt(off, p)
}

/*************************************************************************
 *
 * DirectWriteFile: a direct-access channel that writes to a file.
 */

type DirectWriteFile struct {
	b fileBase
}

var _ api.DirectWriteChannel = (*DirectWriteFile)(nil)

var directWriteShape = shapeAccess{write: true}

// NewDirectWriteFile creates a closed direct-access write channel.
func NewDirectWriteFile() *DirectWriteFile { return &DirectWriteFile{} }

func (c *DirectWriteFile) Open(r *reactor.Reactor, path string, f FileFlag) error {
	return c.b.openPath(r, path, f, directWriteShape)
}

func (c *DirectWriteFile) AsyncOpen(r *reactor.Reactor, path string, f FileFlag) *task.Task[struct{}] {
	return c.b.asyncOpenPath(r, path, f, directWriteShape)
}

func (c *DirectWriteFile) IsOpen() bool { return c.b.IsOpen() }
func (c *DirectWriteFile) Close() error { return c.b.close() }
func (c *DirectWriteFile) AsyncClose() *task.Task[struct{}] { return c.b.asyncClose() }

func (c *DirectWriteFile) WriteSomeAt(off int64, p []byte) (int, error) {
	return c.b.writeSomeAt(off, p)
}

func (c *DirectWriteFile) AsyncWriteSomeAt(off int64, p []byte) *task.Task[int] {
	return c.b.asyncWriteSomeAt(off, p)
}

/*************************************************************************
 *
 * DirectFile: a direct-access read-write channel.
 */

type DirectFile struct {
	b fileBase
}

var _ api.DirectChannel = (*DirectFile)(nil)

var directShape = shapeAccess{read: true, write: true}

// NewDirectFile creates a closed direct-access read-write channel.
func NewDirectFile() *DirectFile { return &DirectFile{} }

func (c *DirectFile) Open(r *reactor.Reactor, path string, f FileFlag) error {
	return c.b.openPath(r, path, f, directShape)
}

func (c *DirectFile) AsyncOpen(r *reactor.Reactor, path string, f FileFlag) *task.Task[struct{}] {
	return c.b.asyncOpenPath(r, path, f, directShape)
}

func (c *DirectFile) IsOpen() bool { return c.b.IsOpen() }
func (c *DirectFile) Close() error { return c.b.close() }
func (c *DirectFile) AsyncClose() *task.Task[struct{}] { return c.b.asyncClose() }

func (c *DirectFile) ReadSomeAt(off int64, p []byte) (int, error) {
	return c.b.readSomeAt(off, p)
}

func (c *DirectFile) AsyncReadSomeAt(off int64, p []byte) *task.Task[int] {
	return c.b.asyncReadSomeAt(off, p)
}

func (c *DirectFile) WriteSomeAt(off int64, p []byte) (int, error) {
	return c.b.writeSomeAt(off, p)
}

func (c *DirectFile) AsyncWriteSomeAt(off int64, p []byte) *task.Task[int] {
	return c.b.asyncWriteSomeAt(off, p)
}
