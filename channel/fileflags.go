// File: channel/fileflags.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package channel

import "github.com/momentics/hioload-aio/api"

// FileFlag is the open-mode bitmask for file channels.
type FileFlag uint16

const (
	// FlagNone opens with the channel shape's implied access only.
	FlagNone FileFlag = 0

	// FlagWrite opens the file for writing.
	FlagWrite FileFlag = 1 << 0

	// FlagRead opens the file for reading.
	FlagRead FileFlag = 1 << 1

	// FlagTrunc truncates an existing file on open. Requires FlagWrite.
	FlagTrunc FileFlag = 1 << 2

	// FlagAppend forces every write to land at end-of-file. Sequential
	// write channels only; requires FlagWrite.
	FlagAppend FileFlag = 1 << 3

	// FlagCreateNew allows creating a file that does not exist. Without
	// FlagOpenExisting the open fails if the file already exists.
	FlagCreateNew FileFlag = 1 << 4

	// FlagOpenExisting allows opening a file that already exists. Implied
	// for read-only channels.
	FlagOpenExisting FileFlag = 1 << 5
)

// shapeAccess describes a file-channel shape's access pattern for flag
// validation.
type shapeAccess struct {
	read       bool
	write      bool
	sequential bool
}

// normalizeFlags validates caller flags against the shape and fills in
// the shape's implied access bits. The original flag taxonomy: read-only
// shapes reject FlagWrite and imply FlagRead; write-only shapes mirror
// that; read-write shapes imply both.
func normalizeFlags(f FileFlag, shape shapeAccess) (FileFlag, error) {
	if shape.read && !shape.write && f&FlagWrite != 0 {
		return 0, api.ErrInvalidFileFlags
	}
	if shape.write && !shape.read && f&FlagRead != 0 {
		return 0, api.ErrInvalidFileFlags
	}
	if shape.read {
		f |= FlagRead
	}
	if shape.write {
		f |= FlagWrite
	}
	if f&(FlagTrunc|FlagAppend|FlagCreateNew) != 0 && f&FlagWrite == 0 {
		return 0, api.ErrInvalidFileFlags
	}
	if f&FlagTrunc != 0 && f&FlagAppend != 0 {
		return 0, api.ErrInvalidFileFlags
	}
	if f&FlagAppend != 0 && !shape.sequential {
		return 0, api.ErrInvalidFileFlags
	}
	return f, nil
}
