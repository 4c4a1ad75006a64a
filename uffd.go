//go:build linux && cgo

/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unsafe"

	uffd "github.com/ricardobranco777/go-userfaultfd"
	"golang.org/x/sys/unix"
)

// MappedResource exposes a remote resource as ordinary memory. The region is
// registered with userfaultfd; touching an unpopulated page fetches the
// window containing it through a windowFetcher, so faulted pages go through
// the same window cache the streams use.
type MappedResource struct {
	fetcher  *windowFetcher
	uffd     *uffd.Uffd
	addr     []byte
	pageSize int
	done     chan struct{}
}

// Ensure interface sanity
var _ io.Closer = (*MappedResource)(nil)

// NewMappedResource probes the resource and maps it. Options behave as for
// New; WithCache is the interesting one, since a shared cache lets faulted
// pages and stream reads feed each other.
func NewMappedResource(client RangeClient, opts ...Option) (*MappedResource, error) {
	length, err := probeLength(context.Background(), client)
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("httpwindow: cannot map empty resource")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.windowSize <= 0 {
		return nil, fmt.Errorf("httpwindow: window size must be positive, got %d", cfg.windowSize)
	}
	cache, err := cfg.buildCache(cfg.windowSize)
	if err != nil {
		return nil, err
	}

	pageSize := unix.Getpagesize()
	mapLen := (int(length) + pageSize - 1) &^ (pageSize - 1)

	addr, err := unix.Mmap(-1, 0, mapLen,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	u, err := uffd.New(uffd.UFFD_USER_MODE_ONLY, 0)
	if err != nil {
		unix.Munmap(addr)
		return nil, fmt.Errorf("userfaultfd: %w", err)
	}

	m := &MappedResource{
		fetcher:  newWindowFetcher(client, cache, cfg.windowSize, length),
		uffd:     u,
		addr:     addr,
		pageSize: pageSize,
		done:     make(chan struct{}),
	}

	_, err = u.Register(
		uintptr(unsafe.Pointer(&addr[0])),
		mapLen,
		uffd.UFFDIO_REGISTER_MODE_MISSING,
	)
	if err != nil {
		u.Close()
		unix.Munmap(addr)
		return nil, fmt.Errorf("userfaultfd register: %w", err)
	}

	go m.faultLoop()

	return m, nil
}

// faultLoop runs in a goroutine and handles all page faults.
func (m *MappedResource) faultLoop() {
	base := uintptr(unsafe.Pointer(&m.addr[0]))

	for {
		msg, err := m.uffd.ReadMsg()
		if err != nil {
			select {
			case <-m.done:
				return
			default:
				if logger != nil {
					logger.Error("uffd read event failed", err)
				}
				continue
			}
		}

		switch msg.Event {
		case uffd.UFFD_EVENT_PAGEFAULT:
			fault := (*uffd.UffdMsgPagefault)(unsafe.Pointer(&msg.Data))
			addr := uintptr(fault.Address)
			pageAddr := addr &^ uintptr(m.pageSize-1)
			offset := int64(pageAddr - base)

			buf := make([]byte, m.pageSize)
			if err := m.readPage(buf, offset); err != nil {
				// Resolve the fault with zeros so the faulting
				// thread is not stuck forever; the error is the
				// caller's to notice via the logger.
				if logger != nil {
					logger.Error("page fetch failed", "offset", offset, err)
				}
			}

			_, err := m.uffd.Copy(pageAddr, uintptr(unsafe.Pointer(&buf[0])), m.pageSize, 0)
			if err != nil && logger != nil {
				logger.Error("uffd copy failed", err)
			}

		default:
			if logger != nil {
				logger.Error("uffd: unexpected event", msg.Event)
			}
		}
	}
}

// readPage fills buf with resource bytes starting at off, walking windows as
// needed. The tail past the resource length stays zero.
func (m *MappedResource) readPage(buf []byte, off int64) error {
	filled := 0
	for filled < len(buf) {
		pos := off + int64(filled)
		if pos >= m.fetcher.length {
			return nil
		}
		if err := m.fetcher.prepareWindow(context.Background(), pos); err != nil {
			return err
		}
		wOff := pos % m.fetcher.windowSize
		n := copy(buf[filled:], m.fetcher.window[wOff:])
		if n == 0 {
			return errors.New("httpwindow: empty window during page fill")
		}
		filled += n
	}
	return nil
}

// Bytes returns the mapped region. Accessing it triggers HTTP traffic lazily.
func (m *MappedResource) Bytes() []byte {
	return m.addr
}

// Length returns the resource length; the mapping itself is page-aligned and
// may be slightly longer, zero-filled at the tail.
func (m *MappedResource) Length() int64 {
	return m.fetcher.length
}

// Stats returns a snapshot of the fault-side fetch counters.
func (m *MappedResource) Stats() Stats {
	return m.fetcher.stats()
}

// Close unregisters the fault handler and unmaps memory.
func (m *MappedResource) Close() error {
	close(m.done)
	m.uffd.Close()
	return unix.Munmap(m.addr)
}
