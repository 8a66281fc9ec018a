// This file implements opening a demo file as a read-only memory mapping
// (rather than buffering the whole file), the way saferwall/pe maps PE
// binaries for zero-copy section access. Demo files are read strictly
// forward and can run to the hundreds of megabytes, making a mapping a
// good fit. Adapted in spirit from repdecoder.NewFromFile, which instead
// opens a buffered os.File since SC:BW replays are small.
package dem

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/icza/csdemo/demoerr"
)

// Opened holds a demo file's mapping, its detected format, and the
// parsed file header (Source 1 only carries one in the sense of §6.1;
// Source 2's header is a FileHeader command parsed by msg/demoinfo).
type Opened struct {
	Format Format
	Header *Header // non-nil only for Source 1
	data   mmap.MMap
	file   *os.File
}

// OpenFile memory-maps a demo file, detects its wire format, and (for
// Source 1) parses and validates the fixed file header.
func OpenFile(path string) (*Opened, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	closeOnErr := func(err error) (*Opened, error) {
		f.Close()
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		return closeOnErr(err)
	}
	if stat.Size() < 8 {
		return closeOnErr(fmt.Errorf("%w: file too small", demoerr.ErrInvalidMagic))
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return closeOnErr(err)
	}

	format := DetectFormat(m[:8])
	if format == FormatUnknown {
		m.Unmap()
		return closeOnErr(fmt.Errorf("%w: unrecognised magic", demoerr.ErrInvalidMagic))
	}

	o := &Opened{Format: format, data: m, file: f}

	if format == FormatSource1 {
		if len(m) < 1072 {
			return closeOnErr(fmt.Errorf("%w: file too small for header", demoerr.ErrInvalidMagic))
		}
		h, err := ParseSource1Header(m[8:1072])
		if err != nil {
			return closeOnErr(err)
		}
		o.Header = h
	}

	return o, nil
}

// Reader returns a container-framer Reader positioned right after the
// file header / preamble.
func (o *Opened) Reader() Reader {
	closer := func() error {
		err := o.data.Unmap()
		if cerr := o.file.Close(); err == nil {
			err = cerr
		}
		return err
	}

	switch o.Format {
	case FormatSource1:
		return NewSource1Reader(o.data[1072:], closer)
	case FormatSource2:
		return NewSource2Reader(o.data[16:], closer)
	default:
		panic("dem: Reader called on an Opened with unknown format")
	}
}

// Bytes returns the full mapped file content (used by callers that want
// the raw byte count, e.g. for a humanize.Bytes summary).
func (o *Opened) Bytes() []byte { return o.data }
