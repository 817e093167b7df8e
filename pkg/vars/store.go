// Package vars implements the variable store of the interpreter and the
// expansion of variable references.
package vars

import (
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/shlevy/gnupg/pkg/errutil"
)

// Store keeps variables by name. A variable may own a file descriptor, which
// the store closes when the variable is replaced, unset or when the store is
// closed. The standard streams 0, 1 and 2 are never closed by the store.
//
// The zero value is not usable; use New.
type Store struct {
	m map[string]*variable
	// Closes a descriptor. Replaced in tests.
	closeFd func(int) error
}

type variable struct {
	value string
	set   bool
	fd    *ownedFd
}

// New returns an empty Store.
func New() *Store {
	return &Store{m: make(map[string]*variable), closeFd: unix.Close}
}

// Set assigns value to the named variable, which will not own any descriptor.
func (s *Store) Set(name, value string) {
	s.assign(name, value, nil)
}

// SetFd assigns the descriptor number fd to the named variable, which will own
// the descriptor.
func (s *Store) SetFd(name string, fd int) {
	s.assign(name, strconv.Itoa(fd), &ownedFd{fd: fd})
}

func (s *Store) assign(name, value string, fd *ownedFd) {
	v := s.m[name]
	if v == nil {
		v = &variable{}
		s.m[name] = v
	} else {
		s.release(v)
	}
	*v = variable{value: value, set: true, fd: fd}
}

// Get returns the value of the named variable, and whether it has a value.
// Unknown and unset variables have no value, which is different from having
// an empty value.
func (s *Store) Get(name string) (string, bool) {
	v := s.m[name]
	if v == nil || !v.set {
		return "", false
	}
	return v.value, true
}

// IsFd reports whether the named variable owns a descriptor.
func (s *Store) IsFd(name string) bool {
	v := s.m[name]
	return v != nil && v.fd != nil
}

// Unset removes the value of the named variable, closing its descriptor if it
// owns one.
func (s *Store) Unset(name string) {
	if v := s.m[name]; v != nil {
		s.release(v)
		*v = variable{}
	}
}

// Close releases all descriptors owned by variables. Variables keep their
// values but no longer own descriptors.
func (s *Store) Close() error {
	var errs []error
	for _, v := range s.m {
		errs = append(errs, s.release(v))
	}
	return errutil.Multi(errs...)
}

func (s *Store) release(v *variable) error {
	if v.fd == nil {
		return nil
	}
	fd := v.fd
	v.fd = nil
	return fd.release(s.closeFd)
}

// ownedFd is a descriptor owned by exactly one variable.
type ownedFd struct {
	fd       int
	released bool
}

func (o *ownedFd) release(closeFd func(int) error) error {
	if o.released {
		return nil
	}
	o.released = true
	if o.fd <= 2 {
		// Standard streams, or not a descriptor at all.
		return nil
	}
	return closeFd(o.fd)
}
